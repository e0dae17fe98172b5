package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/diagnosis/stayease/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url, name string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "bytes", len(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	return n.conn.Drain()
}

// Noop discards events. Used when NATS is not configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close() error                                       { return nil }

const (
	UserRegistered        = "user.registered"
	UserVerified          = "user.verified"
	ListingCreated        = "listing.created"
	ListingPublished      = "listing.published"
	BookingCreated        = "booking.created"
	SubscriptionActivated = "subscription.activated"
)

type UserRegisteredEvent struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	EmailQueued  bool      `json:"email_queued"`
	RegisteredAt time.Time `json:"registered_at"`
}

type UserVerifiedEvent struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	VerifiedAt time.Time `json:"verified_at"`
}

type ListingCreatedEvent struct {
	ListingID string    `json:"listing_id"`
	HostID    string    `json:"host_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type ListingPublishedEvent struct {
	ListingID   string    `json:"listing_id"`
	HostID      string    `json:"host_id"`
	PublishedAt time.Time `json:"published_at"`
}

type BookingCreatedEvent struct {
	BookingID string    `json:"booking_id"`
	ListingID string    `json:"listing_id"`
	HostID    string    `json:"host_id"`
	GuestID   string    `json:"guest_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

type SubscriptionActivatedEvent struct {
	HostID    string     `json:"host_id"`
	PlanID    string     `json:"plan_id"`
	Quota     *int       `json:"quota"`
	PeriodEnd *time.Time `json:"period_end"`
	OrderID   string     `json:"order_id"`
}
