package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// RunOrphanSweep is the second line of defense against dual-write drift: it
// scans every registered target kind for flag pairs still set past their
// "until" timestamp and clears them directly. No grant row is consulted —
// this path exists precisely for the cases where the grant row is gone,
// already inactive, or was never paired with the flag write that crashed.
//
// Same failure-isolation and idempotence properties as the expiry sweeps.
func (s *Service) RunOrphanSweep(ctx context.Context) (SweepReport, error) {
	start := s.now()
	report := SweepReport{Family: FamilyOrphans}

	kinds := make([]TargetKind, 0, len(s.targets))
	for k := range s.targets {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		ts := s.targets[kind]
		stale, err := ts.StaleFlags(ctx, start)
		if err != nil {
			s.metrics.SweepRun(FamilyOrphans, false)
			return report, fmt.Errorf("orphan sweep: scan %s flags: %w", kind, err)
		}
		report.Candidates += len(stale)

		for _, f := range stale {
			if err := ts.SetFlag(ctx, f.TargetID, f.Type, false, nil); err != nil {
				report.Failed++
				s.log.WithError(err).WithFields(logrus.Fields{
					"kind":      f.Kind,
					"target_id": f.TargetID,
					"type":      f.Type,
				}).Warn("orphan sweep: flag clear failed, will retry next tick")
				continue
			}
			report.Deactivated++
			s.log.WithFields(logrus.Fields{
				"kind":      f.Kind,
				"target_id": f.TargetID,
				"type":      f.Type,
				"until":     f.Until,
			}).Info("orphan flag cleared")
		}
	}

	report.Duration = s.now().Sub(start)
	s.finishSweep(report)
	return report, nil
}
