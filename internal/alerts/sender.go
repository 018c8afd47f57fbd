// Package alerts delivers classified intelligence to external channels.
package alerts

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Sender posts one text message to a channel. Delivery is best effort:
// implementations log failures and never block the pipeline indefinitely.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Nop discards everything.
type Nop struct{}

// Send implements Sender.
func (Nop) Send(context.Context, string) error { return nil }

// Multi fans one message out to several senders. Individual failures are
// logged and do not stop the remaining deliveries.
type Multi struct {
	senders []Sender
}

// NewMulti builds a fan-out sender. Nil entries are skipped.
func NewMulti(senders ...Sender) *Multi {
	m := &Multi{}
	for _, s := range senders {
		if s != nil {
			m.senders = append(m.senders, s)
		}
	}
	return m
}

// Send implements Sender.
func (m *Multi) Send(ctx context.Context, text string) error {
	for _, s := range m.senders {
		if err := s.Send(ctx, text); err != nil {
			log.Errorf("alert delivery failed: %v", err)
		}
	}
	return nil
}
