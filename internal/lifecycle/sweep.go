package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/bxsite/internal/metrics"
	"github.com/dmitrymomot/bxsite/internal/sites"
)

// SweepStats summarizes one pass over pending domains.
type SweepStats struct {
	Checked  int
	Verified int
	Pending  int
	Failed   int
}

// Sweep re-runs Verify, as the owner, for every site whose custom domain is
// still pending. Per-site failures are logged and counted, never returned.
func (m *Manager) Sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	err := m.index.ScanSites(ctx, func(s *sites.Site) error {
		if s.State() != sites.StatePendingVerification || s.VerificationToken == "" {
			return nil
		}
		stats.Checked++

		_, err := m.Verify(ctx, Actor{AccountID: s.OwnerID}, s.Identifier)
		switch {
		case err == nil:
			stats.Verified++
		case errors.Is(err, ErrVerificationPending):
			stats.Pending++
		default:
			stats.Failed++
			m.logger.WarnContext(ctx, "pending domain sweep failed for site",
				slog.String("identifier", s.Identifier),
				slog.String("domain", s.CustomDomain),
				slog.Any("error", err))
		}
		return ctx.Err()
	})
	if err != nil {
		return stats, err
	}

	metrics.SweepRunsTotal.Inc()
	return stats, nil
}
