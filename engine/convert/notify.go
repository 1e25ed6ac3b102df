package convert

import (
	"context"
	"log/slog"
	"time"

	"github.com/WessleyAI/ifcgraph/pkg/natsutil"
	"github.com/nats-io/nats.go"
)

// CompletedSubject is the NATS subject run reports are published on.
const CompletedSubject = "ifcgraph.convert.completed"

const flushTimeout = 2 * time.Second

// Notifier is told about every finished run, failed ones included.
type Notifier interface {
	Notify(ctx context.Context, r Report) error
}

// NATSNotifier publishes reports as JSON on a NATS subject.
type NATSNotifier struct {
	nc      *nats.Conn
	subject string
}

// NewNATSNotifier publishes on subject, or CompletedSubject when empty.
func NewNATSNotifier(nc *nats.Conn, subject string) *NATSNotifier {
	if subject == "" {
		subject = CompletedSubject
	}
	return &NATSNotifier{nc: nc, subject: subject}
}

func (n *NATSNotifier) Notify(ctx context.Context, r Report) error {
	if err := natsutil.Publish(ctx, n.nc, n.subject, r); err != nil {
		return err
	}
	return n.nc.FlushTimeout(flushTimeout)
}

// notify never fails the run; delivery problems are only logged.
func notify(ctx context.Context, n Notifier, r Report, log *slog.Logger) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, r); err != nil {
		log.Warn("convert: notify failed", "run_id", r.RunID, "error", err)
	}
}
