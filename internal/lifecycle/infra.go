package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/bxsite/internal/metrics"
	"github.com/dmitrymomot/bxsite/pkg/vercel"
)

type infraOp string

const (
	opAttach infraOp = "attach"
	opDetach infraOp = "detach"
)

// dispatch runs a hosting provider call on its own goroutine, detached from
// the request's cancellation. Its outcome never reaches the caller: failures
// other than "not configured" are logged as warnings and counted.
func (m *Manager) dispatch(ctx context.Context, op infraOp, domain string) {
	call := m.infra.Attach
	if op == opDetach {
		call = m.infra.Detach
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.infraTimeout)
		defer cancel()

		err := call(callCtx, domain)
		if err == nil || errors.Is(err, vercel.ErrNotConfigured) {
			return
		}

		metrics.InfraSideEffectFailuresTotal.WithLabelValues(string(op)).Inc()
		m.logger.WarnContext(callCtx, "infrastructure side effect failed",
			slog.String("op", string(op)),
			slog.String("domain", domain),
			slog.Any("error", err))
	}()
}
