// Package notify fans inquiry events out to the configured sinks (Kafka,
// webhook, Slack). Delivery is best-effort and never blocks the API.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/psds-microservice/inquiry-service/internal/model"
)

const (
	EventCreated = "inquiry.created"
	EventUpdated = "inquiry.updated"
	EventDeleted = "inquiry.deleted"
)

// DeliveryTimeout bounds one asynchronous fan-out.
const DeliveryTimeout = 5 * time.Second

type Event struct {
	Name           string         `json:"event"`
	InquiryID      uuid.UUID      `json:"inquiry_id"`
	NamaToko       string         `json:"nama_toko,omitempty"`
	Status         model.Status   `json:"status"`
	PreviousStatus model.Status   `json:"previous_status,omitempty"`
	Action         string         `json:"action,omitempty"`
	Role           model.Role     `json:"role,omitempty"`
	Actor          string         `json:"actor,omitempty"`
	Divisi         model.Division `json:"divisi,omitempty"`
	At             time.Time      `json:"at"`
}

func (e Event) StatusChanged() bool {
	return e.PreviousStatus != "" && e.PreviousStatus != e.Status
}

// Payload flattens the event for sinks that take a generic map.
func (e Event) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"inquiry_id": e.InquiryID.String(),
		"status":     string(e.Status),
		"at":         e.At.UTC().Format(time.RFC3339),
	}
	if e.NamaToko != "" {
		p["nama_toko"] = e.NamaToko
	}
	if e.PreviousStatus != "" {
		p["previous_status"] = string(e.PreviousStatus)
	}
	if e.Action != "" {
		p["action"] = e.Action
	}
	if e.Role != "" {
		p["role"] = string(e.Role)
	}
	if e.Actor != "" {
		p["actor"] = e.Actor
	}
	if e.Divisi != "" {
		p["divisi"] = string(e.Divisi)
	}
	return p
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Fanout delivers every event to all notifiers. Publish is asynchronous;
// Wait blocks until in-flight deliveries finish (used on shutdown).
type Fanout struct {
	notifiers []Notifier
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewFanout(notifiers ...Notifier) *Fanout {
	f := &Fanout{timeout: DeliveryTimeout}
	for _, n := range notifiers {
		if n != nil {
			f.notifiers = append(f.notifiers, n)
		}
	}
	return f
}

func (f *Fanout) Len() int { return len(f.notifiers) }

// Notify delivers synchronously and joins every sink's error.
func (f *Fanout) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Publish(e Event) {
	if len(f.notifiers) == 0 {
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		defer cancel()
		if err := f.Notify(ctx, e); err != nil {
			slog.Warn("notify: deliver event",
				slog.String("event", e.Name),
				slog.String("inquiry_id", e.InquiryID.String()),
				slog.Any("err", err))
		}
	}()
}

func (f *Fanout) Wait() { f.wg.Wait() }
