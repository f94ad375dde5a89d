package jsoncodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(Name)
	require.NotNil(t, c)

	type msg struct {
		ID   int64  `json:"id"`
		Note string `json:"note"`
	}
	data, err := c.Marshal(&msg{ID: 9, Note: "ok"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":9,"note":"ok"}`, string(data))

	var out msg
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, msg{ID: 9, Note: "ok"}, out)
}
