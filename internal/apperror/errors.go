// Package apperror holds the error taxonomy shared by the reconciliation and
// patient services. Every error knows its gRPC status, so handlers can return
// it as-is and the gateway can recover the details on the other side.
package apperror

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	Domain = "clinic-system"

	ReasonNotFound          = "NOT_FOUND"
	ReasonInsufficientStock = "INSUFFICIENT_STOCK"
	ReasonValidation        = "VALIDATION_FAILED"
	ReasonPersistence       = "PERSISTENCE_FAILURE"
)

type NotFoundError struct {
	Kind string
	ID   int64
}

func NotFound(kind string, id int64) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) GRPCStatus() *status.Status {
	return withInfo(codes.NotFound, e.Error(), ReasonNotFound, map[string]string{
		"kind": e.Kind,
		"id":   strconv.FormatInt(e.ID, 10),
	})
}

// InsufficientStockError is a business rule violation, not a fault. Name is the
// human readable item name shown to the operator.
type InsufficientStockError struct {
	Kind      string
	ID        int64
	Name      string
	Available int64
	Required  int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %d, required %d", e.Name, e.Available, e.Required)
}

func (e *InsufficientStockError) GRPCStatus() *status.Status {
	return withInfo(codes.FailedPrecondition, e.Error(), ReasonInsufficientStock, map[string]string{
		"kind":      e.Kind,
		"id":        strconv.FormatInt(e.ID, 10),
		"name":      e.Name,
		"available": strconv.FormatInt(e.Available, 10),
		"required":  strconv.FormatInt(e.Required, 10),
	})
}

type ValidationError struct {
	Field  string
	Reason string
}

func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) GRPCStatus() *status.Status {
	return withInfo(codes.InvalidArgument, e.Error(), ReasonValidation, map[string]string{
		"field": e.Field,
	})
}

// PersistenceError wraps a store failure. The enclosing transaction has always
// been rolled back by the time callers see it.
type PersistenceError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) GRPCStatus() *status.Status {
	code := codes.Internal
	if e.Retryable {
		code = codes.Unavailable
	}
	return withInfo(code, e.Error(), ReasonPersistence, map[string]string{
		"op":        e.Op,
		"retryable": strconv.FormatBool(e.Retryable),
	})
}

// Persistence wraps err as a PersistenceError unless it already belongs to the
// taxonomy, in which case it is returned unchanged.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err, Retryable: isRetryable(err)}
}

// IsDomain reports whether err is a caller-correctable business error.
func IsDomain(err error) bool {
	var (
		nf *NotFoundError
		is *InsufficientStockError
		ve *ValidationError
	)
	return errors.As(err, &nf) || errors.As(err, &is) || errors.As(err, &ve)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03", // lock_not_available
			"57014", // query_canceled
			"08000", "08003", "08006":
			return true
		}
	}

	return pgconn.Timeout(err)
}

func withInfo(code codes.Code, msg, reason string, metadata map[string]string) *status.Status {
	st := status.New(code, msg)
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   Domain,
		Metadata: metadata,
	})
	if err != nil {
		return st
	}
	return detailed
}

// InfoFromStatus returns the ErrorInfo attached by this package, if any.
func InfoFromStatus(st *status.Status) *errdetails.ErrorInfo {
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == Domain {
			return info
		}
	}
	return nil
}
