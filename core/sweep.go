package core

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Sweep family names, used in reports, logs, and metric labels.
const (
	FamilyPromotions   = "promotions"
	FamilyVerification = "verification"
	FamilyOrphans      = "orphans"
)

// RunPromotionExpirySweep finds active promotion grants past their expiry and
// revokes each one (deactivate grant + clear the type's flag pair) in its own
// atomic unit. A failure on one grant is logged and counted; the sweep moves
// on, and the grant is a candidate again on the next tick. Only a failure of
// the candidate query itself aborts the run.
//
// Running the sweep twice in a row is safe: the second run finds nothing.
func (s *Service) RunPromotionExpirySweep(ctx context.Context) (SweepReport, error) {
	start := s.now()
	report := SweepReport{Family: FamilyPromotions}

	candidates, err := s.grants.Expired(ctx, start)
	if err != nil {
		s.metrics.SweepRun(FamilyPromotions, false)
		return report, fmt.Errorf("promotion sweep: list candidates: %w", err)
	}
	report.Candidates = len(candidates)

	for _, g := range candidates {
		g := g
		err := s.db.Atomic(ctx, func(ctx context.Context) error {
			if err := s.grants.Deactivate(ctx, g.ID); err != nil {
				return err
			}
			ts, err := s.target(g.TargetKind)
			if err != nil {
				return err
			}
			return ts.SetFlag(ctx, g.TargetID, g.Type, false, nil)
		})
		if err != nil {
			report.Failed++
			s.log.WithError(err).WithFields(logrus.Fields{
				"grant_id":  g.ID,
				"target_id": g.TargetID,
				"type":      g.Type,
			}).Warn("promotion sweep: deactivation failed, will retry next tick")
			continue
		}
		report.Deactivated++
		s.notify(ctx, Notification{
			Event:      EventPromotionExpired,
			TargetKind: g.TargetKind,
			TargetID:   g.TargetID,
			UserID:     g.CreatedBy,
			Type:       g.Type,
		})
	}

	report.Duration = s.now().Sub(start)
	s.finishSweep(report)
	return report, nil
}

// RunVerificationExpirySweep is the same machinery over the verification
// family: approved requests with a non-null expiry in the past move to
// expired and the user's flag pair is cleared. Indefinite approvals are never
// candidates.
func (s *Service) RunVerificationExpirySweep(ctx context.Context) (SweepReport, error) {
	start := s.now()
	report := SweepReport{Family: FamilyVerification}

	candidates, err := s.verifications.Expired(ctx, start)
	if err != nil {
		s.metrics.SweepRun(FamilyVerification, false)
		return report, fmt.Errorf("verification sweep: list candidates: %w", err)
	}
	report.Candidates = len(candidates)

	users, err := s.target(KindUser)
	if err != nil {
		s.metrics.SweepRun(FamilyVerification, false)
		return report, err
	}

	for _, r := range candidates {
		r := r
		err := s.db.Atomic(ctx, func(ctx context.Context) error {
			r.Status = VerificationExpired
			if err := s.verifications.Update(ctx, &r); err != nil {
				return err
			}
			return users.SetFlag(ctx, r.UserID, r.Type, false, nil)
		})
		if err != nil {
			report.Failed++
			s.log.WithError(err).WithFields(logrus.Fields{
				"request_id": r.ID,
				"user_id":    r.UserID,
				"type":       r.Type,
			}).Warn("verification sweep: expiry failed, will retry next tick")
			continue
		}
		report.Deactivated++
		s.notify(ctx, Notification{
			Event:      EventVerificationExpired,
			TargetKind: KindUser,
			TargetID:   r.UserID,
			UserID:     r.UserID,
			Type:       r.Type,
		})
	}

	report.Duration = s.now().Sub(start)
	s.finishSweep(report)
	return report, nil
}

func (s *Service) finishSweep(report SweepReport) {
	s.metrics.SweepRun(report.Family, true)
	s.metrics.SweepItems(report.Family, report.Candidates, report.Deactivated, report.Failed)
	entry := s.log.WithFields(logrus.Fields{
		"family":      report.Family,
		"candidates":  report.Candidates,
		"deactivated": report.Deactivated,
		"failed":      report.Failed,
		"duration":    report.Duration,
	})
	if report.Failed > 0 {
		entry.Warn("sweep finished with failures")
	} else if report.Candidates > 0 {
		entry.Info("sweep finished")
	} else {
		entry.Debug("sweep finished, nothing to do")
	}
}
