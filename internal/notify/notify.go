// Package notify hands domain events to downstream consumers over redis
// pub/sub. Delivery (SMS, email) happens outside this system.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	EventDayClosed   = "dayclose.completed"
	EventPlanOverdue = "plan.overdue"

	ChannelPrefix = "clinic:events:"
	ChannelAll    = ChannelPrefix + "all"
)

type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"event_type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

type DayClosed struct {
	ReportID      int64     `json:"report_id"`
	ReportDate    time.Time `json:"report_date"`
	SubmittedBy   string    `json:"submitted_by"`
	TotalPayments int64     `json:"total_payments"`
	TotalExpenses int64     `json:"total_expenses"`
	SalesCount    int       `json:"sales_count"`
}

// OverdueReminder carries what a reminder sender needs to reach the patient.
type OverdueReminder struct {
	PlanID        int64   `json:"plan_id"`
	PatientID     int64   `json:"patient_id"`
	PatientNumber string  `json:"patient_number"`
	FullName      string  `json:"full_name"`
	Phone         *string `json:"phone,omitempty"`
	OverdueAmount int64   `json:"overdue_amount"`
}

// RedisNotifier publishes each event on its type channel and on ChannelAll.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Notify(ctx context.Context, event Event) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := n.client.Publish(ctx, ChannelPrefix+event.Type, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := n.client.Publish(ctx, ChannelAll, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish to all channel: %w", err)
	}

	return nil
}
