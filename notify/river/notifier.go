// Package rivernotify dispatches lifecycle notifications through the river
// job queue, so delivery retries live in the queue rather than in the engine.
package rivernotify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/grantkit/core"
)

// NotificationArgs is the river job payload for one lifecycle notification.
type NotificationArgs struct {
	Event      core.NotificationEvent `json:"event"`
	TargetKind core.TargetKind        `json:"target_kind"`
	TargetID   uuid.UUID              `json:"target_id"`
	UserID     uuid.UUID              `json:"user_id"`
	Type       core.EntitlementType   `json:"entitlement_type"`
	ExpiresAt  *time.Time             `json:"expires_at,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
}

func (NotificationArgs) Kind() string { return "grant_notification" }

func (NotificationArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 5}
}

// Notifier implements core.Notifier by enqueueing a job. The engine treats
// the enqueue as fire-and-forget: an error here is logged by the service and
// never rolls back the state transition.
type Notifier struct {
	client *river.Client[pgx.Tx]
}

func NewNotifier(client *river.Client[pgx.Tx]) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Notify(ctx context.Context, ev core.Notification) error {
	if n == nil || n.client == nil {
		return nil
	}
	_, err := n.client.Insert(ctx, NotificationArgs{
		Event:      ev.Event,
		TargetKind: ev.TargetKind,
		TargetID:   ev.TargetID,
		UserID:     ev.UserID,
		Type:       ev.Type,
		ExpiresAt:  ev.ExpiresAt,
		Reason:     ev.Reason,
	}, nil)
	return err
}

// Sender delivers one notification to the affected account. Email and SMS
// backends live in the host app; the worker only cares that delivery either
// succeeded or should be retried.
type Sender interface {
	Send(ctx context.Context, ev core.Notification) error
}

// LogSender is the default Sender: it records the delivery to the log.
// Deployments wire a real email/SMS sender instead.
type LogSender struct {
	Log *logrus.Logger
}

func (s LogSender) Send(_ context.Context, ev core.Notification) error {
	if s.Log != nil {
		s.Log.WithFields(logrus.Fields{
			"event":   ev.Event,
			"type":    ev.Type,
			"user_id": ev.UserID,
		}).Info("notification delivered")
	}
	return nil
}

// Worker consumes grant_notification jobs.
type Worker struct {
	river.WorkerDefaults[NotificationArgs]
	sender Sender
}

func (w *Worker) Work(ctx context.Context, job *river.Job[NotificationArgs]) error {
	return w.sender.Send(ctx, core.Notification{
		Event:      job.Args.Event,
		TargetKind: job.Args.TargetKind,
		TargetID:   job.Args.TargetID,
		UserID:     job.Args.UserID,
		Type:       job.Args.Type,
		ExpiresAt:  job.Args.ExpiresAt,
		Reason:     job.Args.Reason,
	})
}

// AddWorker registers the notification worker on a river worker set.
func AddWorker(workers *river.Workers, sender Sender) {
	river.AddWorker(workers, &Worker{sender: sender})
}
