package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dmitrymomot/bxsite/internal/metrics"
	"github.com/dmitrymomot/bxsite/internal/sites"
	"github.com/dmitrymomot/bxsite/pkg/dnsverify"
	"github.com/dmitrymomot/bxsite/pkg/ratelimit"
)

// PublishInput is a create-or-update request. An empty CustomDomain
// detaches any domain the site has.
type PublishInput struct {
	Identifier   string
	Content      string
	CustomDomain string
}

// PublishResult describes the stored record.
type PublishResult struct {
	Site    *sites.Site
	State   sites.State
	TXTHost string
	// TXTValue is the record value the owner must publish to verify.
	TXTValue string
	Created  bool
}

// Publish creates or updates a site, attaching, keeping, or detaching its
// custom domain.
//
// Checks run before any mutation, in order: identifier and domain format,
// domain held by another site, write rate, identifier owned by another
// account, quota (creation only).
//
// Changing the domain removes the old mapping before the record with the
// new domain is written. The new domain gets a fresh token and no mapping
// until Verify succeeds.
func (m *Manager) Publish(ctx context.Context, actor Actor, in PublishInput) (*PublishResult, error) {
	if actor.AccountID == "" {
		return nil, errNotAuthenticated()
	}

	identifier := sites.NormalizeIdentifier(in.Identifier)
	if !sites.ValidIdentifier(identifier) {
		return nil, errInvalidIdentifier()
	}

	domain := dnsverify.NormalizeDomain(in.CustomDomain)
	if domain != "" {
		if err := dnsverify.ValidateDomain(domain, m.platformDomain); err != nil {
			return nil, domainValidationError(err, m.platformDomain)
		}

		holder, err := m.domainHolder(ctx, domain)
		if err != nil {
			return nil, internalError("check domain holder", err)
		}
		if holder != "" && holder != identifier {
			return nil, newError(KindConflict, "This domain is already in use by another site.")
		}
	}

	if err := m.allowWrite(ctx, actor); err != nil {
		return nil, err
	}

	current, err := m.index.GetSite(ctx, identifier)
	if err != nil && !errors.Is(err, sites.ErrSiteNotFound) {
		return nil, internalError("get site", err)
	}
	created := current == nil

	if !created && !actor.owns(current) {
		return nil, newError(KindConflict, "This identifier is already taken.")
	}

	ownerID := actor.AccountID
	if !created {
		ownerID = current.OwnerID
	}

	if created {
		owned, err := m.index.ListByOwner(ctx, ownerID)
		if err != nil {
			return nil, internalError("list owned sites", err)
		}
		if len(owned) >= m.maxSites && !slices.Contains(owned, identifier) {
			metrics.WritesRejectedTotal.WithLabelValues("quota").Inc()
			return nil, newError(KindQuota, fmt.Sprintf(
				"You have reached the limit of %d sites. Please delete a site before creating a new one.", m.maxSites))
		}
	}

	next := &sites.Site{
		Identifier: identifier,
		Content:    in.Content,
		OwnerID:    ownerID,
		UpdatedAt:  m.timestamp(),
	}

	var oldDomain string
	if current != nil {
		oldDomain = current.CustomDomain
	}

	switch {
	case domain != "" && domain == oldDomain:
		next.CustomDomain = domain
		next.VerificationToken = current.VerificationToken
		next.Verified = current.Verified
		if next.VerificationToken == "" {
			next.VerificationToken = m.newToken()
			next.Verified = false
		}

	case domain != "":
		// Attach, or re-attach while another domain is set.
		if oldDomain != "" {
			if err := m.releaseMapping(ctx, oldDomain, identifier); err != nil {
				return nil, internalError("remove old domain mapping", err)
			}
		}
		next.CustomDomain = domain
		next.VerificationToken = m.newToken()

	case oldDomain != "":
		// Detach.
		if err := m.releaseMapping(ctx, oldDomain, identifier); err != nil {
			return nil, internalError("remove domain mapping", err)
		}
	}

	if err := m.index.PutSite(ctx, next); err != nil {
		return nil, internalError("put site", err)
	}
	if err := m.index.AddOwnership(ctx, ownerID, identifier); err != nil {
		return nil, internalError("add ownership", err)
	}

	if oldDomain != "" && oldDomain != domain {
		m.dispatch(ctx, opDetach, oldDomain)
	}

	m.logger.InfoContext(ctx, "site published",
		slog.String("identifier", identifier),
		slog.Bool("created", created),
		slog.String("state", string(next.State())),
		slog.String("custom_domain", next.CustomDomain))

	res := &PublishResult{Site: next, State: next.State(), Created: created}
	if next.CustomDomain != "" {
		res.TXTHost = dnsverify.TXTHost(next.CustomDomain)
		res.TXTValue = dnsverify.TXTValue(next.VerificationToken)
	}
	return res, nil
}

func (m *Manager) allowWrite(ctx context.Context, actor Actor) error {
	err := m.limiter.Allow(ctx, actor.AccountID)
	if err == nil {
		return nil
	}

	var limited *ratelimit.LimitedError
	if errors.As(err, &limited) {
		metrics.WritesRejectedTotal.WithLabelValues("rate_limit").Inc()
		return &Error{
			Kind:       KindRateLimit,
			Message:    "Too many requests. Please wait a minute and try again.",
			RetryAfter: limited.RetryAfter,
			Err:        err,
		}
	}
	return internalError("rate limit", err)
}

func domainValidationError(err error, platform string) *Error {
	msg := "Invalid domain format"
	switch {
	case errors.Is(err, dnsverify.ErrEmptyDomain):
		msg = "Domain cannot be empty"
	case errors.Is(err, dnsverify.ErrPlatformDomain):
		msg = fmt.Sprintf("Cannot use %s domains", platform)
	case errors.Is(err, dnsverify.ErrPrivateDomain):
		msg = "Cannot use local or private IP addresses"
	}
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}
