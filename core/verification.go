package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SubmitVerificationInput asks for an identity entitlement on a user account.
type SubmitVerificationInput struct {
	UserID uuid.UUID
	Type   EntitlementType
	// DurationDays nil requests an indefinite entitlement; the reviewer can
	// override at approval time.
	DurationDays *int
}

// SubmitVerification creates a pending request. A user rejected before simply
// submits again; the old rejected row is untouched.
func (s *Service) SubmitVerification(ctx context.Context, in SubmitVerificationInput) (*VerificationRequest, error) {
	if !in.Type.IsVerification() {
		return nil, fmt.Errorf("%q: %w", in.Type, ErrInvalidType)
	}
	if in.DurationDays != nil && !ValidDuration(*in.DurationDays) {
		return nil, fmt.Errorf("%d days: %w", *in.DurationDays, ErrInvalidDuration)
	}
	users, err := s.target(KindUser)
	if err != nil {
		return nil, err
	}
	info, err := users.Resolve(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve user %s: %w", in.UserID, err)
	}
	if info == nil {
		return nil, fmt.Errorf("user %s: %w", in.UserID, ErrTargetNotFound)
	}
	if info.Deleted {
		return nil, fmt.Errorf("user %s: %w", in.UserID, ErrTargetDeleted)
	}

	req := &VerificationRequest{
		ID:           uuid.New(),
		UserID:       in.UserID,
		Type:         in.Type,
		Status:       VerificationPending,
		DurationDays: in.DurationDays,
		SubmittedAt:  s.now(),
	}
	if err := s.verifications.Insert(ctx, req); err != nil {
		return nil, fmt.Errorf("insert verification request: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"user_id":    in.UserID,
		"type":       in.Type,
	}).Info("verification submitted")
	return req, nil
}

// ApproveVerification moves a pending request to approved, records the
// reviewer, and sets the user's verification flag pair in the same atomic
// unit. durationDays overrides the requested duration when non-nil; a request
// with no duration at all is approved indefinitely (nil expiry) and is exempt
// from the expiry sweep.
func (s *Service) ApproveVerification(ctx context.Context, requestID, reviewerID uuid.UUID, durationDays *int) (*VerificationRequest, error) {
	req, err := s.loadPending(ctx, requestID)
	if err != nil {
		return nil, err
	}
	days := req.DurationDays
	if durationDays != nil {
		days = durationDays
	}
	if days != nil && !ValidDuration(*days) {
		return nil, fmt.Errorf("%d days: %w", *days, ErrInvalidDuration)
	}

	users, err := s.target(KindUser)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var expiresAt *time.Time
	if days != nil {
		t := now.Add(time.Duration(*days) * 24 * time.Hour)
		expiresAt = &t
	}
	req.Status = VerificationApproved
	req.DurationDays = days
	req.ExpiresAt = expiresAt
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &now

	err = s.db.Atomic(ctx, func(ctx context.Context) error {
		if err := s.verifications.Update(ctx, req); err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		return users.SetFlag(ctx, req.UserID, req.Type, true, expiresAt)
	})
	if err != nil {
		return nil, fmt.Errorf("approve request %s: %w", requestID, err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    req.UserID,
		"type":       req.Type,
		"reviewer":   reviewerID,
	}).Info("verification approved")
	s.notify(ctx, Notification{
		Event:      EventVerificationApproved,
		TargetKind: KindUser,
		TargetID:   req.UserID,
		UserID:     req.UserID,
		Type:       req.Type,
		ExpiresAt:  expiresAt,
	})
	return req, nil
}

// RejectVerification moves a pending request to rejected with a reason.
// Rejected is terminal; no flag changes.
func (s *Service) RejectVerification(ctx context.Context, requestID, reviewerID uuid.UUID, reason string) (*VerificationRequest, error) {
	req, err := s.loadPending(ctx, requestID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	req.Status = VerificationRejected
	req.RejectReason = reason
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &now
	if err := s.verifications.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("reject request %s: %w", requestID, err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    req.UserID,
		"type":       req.Type,
		"reviewer":   reviewerID,
	}).Info("verification rejected")
	s.notify(ctx, Notification{
		Event:      EventVerificationRejected,
		TargetKind: KindUser,
		TargetID:   req.UserID,
		UserID:     req.UserID,
		Type:       req.Type,
		Reason:     reason,
	})
	return req, nil
}

func (s *Service) loadPending(ctx context.Context, requestID uuid.UUID) (*VerificationRequest, error) {
	req, err := s.verifications.ByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request %s: %w", requestID, err)
	}
	if req == nil {
		return nil, fmt.Errorf("request %s: %w", requestID, ErrRequestNotFound)
	}
	if req.Status != VerificationPending {
		return nil, fmt.Errorf("request %s is %s: %w", requestID, req.Status, ErrInvalidTransition)
	}
	return req, nil
}
