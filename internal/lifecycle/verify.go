package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/bxsite/internal/metrics"
	"github.com/dmitrymomot/bxsite/internal/sites"
	"github.com/dmitrymomot/bxsite/pkg/dnsverify"
)

// VerifyResult describes a successful ownership proof.
type VerifyResult struct {
	Site   *sites.Site
	Domain string
	// Source names the resolver that answered.
	Source string
}

// Verify proves ownership of the site's pending or verified custom domain
// over DNS. On success the domain mapping is installed before the record
// is marked verified, and the hosting provider attach is dispatched.
// Repeated successes keep the token.
//
// A failed proof returns an *Error of KindVerificationPending whose Message
// names the domain and whose Hint tells "not configured" from "mismatch".
// Nothing is written in that case.
func (m *Manager) Verify(ctx context.Context, actor Actor, identifier string) (*VerifyResult, error) {
	site, err := m.loadOwned(ctx, actor, identifier)
	if err != nil {
		return nil, err
	}
	if site.CustomDomain == "" || site.VerificationToken == "" {
		return nil, newError(KindValidation, "No custom domain configured")
	}

	domain, token := site.CustomDomain, site.VerificationToken

	holder, err := m.domainHolder(ctx, domain)
	if err != nil {
		return nil, internalError("check domain holder", err)
	}
	if holder != "" && holder != site.Identifier {
		return nil, newError(KindConflict, "This domain is already in use by another site.")
	}

	res := m.verifier.Verify(ctx, domain, token)
	metrics.VerificationsTotal.WithLabelValues(string(res.Reason)).Inc()

	if !res.Verified {
		m.logger.InfoContext(ctx, "domain verification pending",
			slog.String("identifier", site.Identifier),
			slog.String("domain", domain),
			slog.String("reason", string(res.Reason)),
			slog.String("resolver", res.Source))
		return nil, pendingError(res)
	}

	// The DNS round trip can be slow; the owner may have changed the
	// domain meanwhile. Only the claim that was proven gets installed.
	fresh, err := m.index.GetSite(ctx, site.Identifier)
	if err != nil {
		return nil, internalError("reload site", err)
	}
	if fresh.CustomDomain != domain || fresh.VerificationToken != token {
		return nil, newError(KindConflict, "The custom domain changed during verification. Please try again.")
	}

	if err := m.index.SetDomainMapping(ctx, domain, fresh.Identifier); err != nil {
		return nil, internalError("set domain mapping", err)
	}

	if !fresh.Verified {
		fresh.Verified = true
		if ts := m.timestamp(); ts.After(fresh.UpdatedAt) {
			fresh.UpdatedAt = ts
		}
		if err := m.index.PutSite(ctx, fresh); err != nil {
			// An unverified record must not keep a mapping.
			if rerr := m.releaseMapping(context.WithoutCancel(ctx), domain, fresh.Identifier); rerr != nil {
				m.logger.WarnContext(ctx, "failed to roll back domain mapping",
					slog.String("identifier", fresh.Identifier),
					slog.String("domain", domain),
					slog.Any("error", rerr))
			}
			return nil, internalError("mark verified", err)
		}
		m.logger.InfoContext(ctx, "domain verified",
			slog.String("identifier", fresh.Identifier),
			slog.String("domain", domain),
			slog.String("resolver", res.Source))
	}

	m.dispatch(ctx, opAttach, domain)

	return &VerifyResult{Site: fresh, Domain: domain, Source: res.Source}, nil
}

func pendingError(res dnsverify.Result) *Error {
	e := &Error{
		Kind:    KindVerificationPending,
		Message: res.Message,
		Reason:  res.Reason,
		Err:     res.Err(),
	}

	switch res.Reason {
	case dnsverify.ReasonNotConfigured:
		e.Hint = fmt.Sprintf("No TXT record found yet. Add a TXT record at %s with the value %s.", res.Host, res.Expected)
	case dnsverify.ReasonMismatch:
		e.Hint = fmt.Sprintf("A TXT record exists at %s but its value is different. Set it to exactly %s.", res.Host, res.Expected)
	default:
		e.Hint = "DNS could not be queried right now. Wait a few minutes and try again."
	}
	return e
}
