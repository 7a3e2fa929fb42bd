// Package transport wraps the NATS connection to the realtime debate
// transport: utterance and session-lifecycle events in, detected-technique
// and operator-alert events out.
package transport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects exchanged with the transport collaborator and live-view consumers.
const (
	SubjectSessionStarted = "debate.session.started"
	SubjectUtterance      = "debate.utterance"
	SubjectSessionEnded   = "debate.session.ended"
	SubjectSessionAborted = "debate.session.aborted"

	// SubjectTechniqueDetected carries each materialized occurrence to live
	// viewers: at most one emission per (utterance, technique) pair.
	SubjectTechniqueDetected = "debate.technique.detected"

	// SubjectOccurrenceFailed is the operator escalation channel for
	// occurrences that could not be persisted after exhausting retries.
	SubjectOccurrenceFailed = "debate.occurrence.failed"

	// SubjectReportReady announces a persisted analysis report.
	SubjectReportReady = "debate.analysis.ready"
)

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
