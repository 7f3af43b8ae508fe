package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	EventLogin    = "login"
	EventRegister = "register"
	EventLogout   = "logout"
	EventExpired  = "expired"
	EventRefresh  = "refresh"
)

// Event describes a session lifecycle transition.
type Event struct {
	Event  string    `json:"event"`
	UserID uint      `json:"user_id"`
	At     time.Time `json:"at"`
}

// Notifier receives session lifecycle events.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NATSNotifier publishes session events on a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewNATSNotifier returns a notifier bound to conn. A nil conn or empty subject disables publishing.
func NewNATSNotifier(conn *nats.Conn, subject string) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subject}
}

// ConnectNATS dials the NATS server at url.
func ConnectNATS(url string) (*nats.Conn, error) {
	return nats.Connect(url, nats.Name("courseforge-portal"), nats.MaxReconnects(5), nats.ReconnectWait(2*time.Second))
}

func (n *NATSNotifier) Notify(_ context.Context, event Event) error {
	if n == nil || n.conn == nil || n.subject == "" {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.conn.Publish(n.subject, payload)
}
