package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NotificationEvent names a lifecycle transition worth telling the affected
// account about.
type NotificationEvent string

const (
	EventPromotionGranted     NotificationEvent = "promotion_granted"
	EventPromotionRevoked     NotificationEvent = "promotion_revoked"
	EventPromotionExpired     NotificationEvent = "promotion_expired"
	EventVerificationApproved NotificationEvent = "verification_approved"
	EventVerificationRejected NotificationEvent = "verification_rejected"
	EventVerificationExpired  NotificationEvent = "verification_expired"
)

// Notification describes one transition for downstream delivery (email, SMS).
type Notification struct {
	Event      NotificationEvent `json:"event"`
	TargetKind TargetKind        `json:"target_kind"`
	TargetID   uuid.UUID         `json:"target_id"`
	// UserID is the account to inform: the ad owner for promotions, the
	// requester for verification.
	UserID    uuid.UUID       `json:"user_id"`
	Type      EntitlementType `json:"type"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

// Notifier hands a notification to an external delivery sink.
// Implementations should be fire-and-forget from the engine's point of view:
// a returned error is logged, never propagated to the state transition.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NopNotifier drops everything.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) error { return nil }

// LogNotifier records notifications to the log only. Useful for deployments
// without a job queue and for local development.
type LogNotifier struct {
	Log *logrus.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	if l.Log == nil {
		return nil
	}
	l.Log.WithFields(logrus.Fields{
		"event":   n.Event,
		"type":    n.Type,
		"user_id": n.UserID,
	}).Info("notification")
	return nil
}
