package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/bxsite/internal/sites"
	"github.com/dmitrymomot/bxsite/pkg/dnsverify"
)

// Get returns a site owned by actor.
func (m *Manager) Get(ctx context.Context, actor Actor, identifier string) (*sites.Site, error) {
	return m.loadOwned(ctx, actor, identifier)
}

// MySites lists the identifiers owned by actor.
func (m *Manager) MySites(ctx context.Context, actor Actor) ([]string, error) {
	if actor.AccountID == "" {
		return nil, errNotAuthenticated()
	}
	owned, err := m.index.ListByOwner(ctx, actor.AccountID)
	if err != nil {
		return nil, internalError("list owned sites", err)
	}
	return owned, nil
}

// Delete removes a site. Its domain mapping goes first, then the record,
// then the ownership entry.
func (m *Manager) Delete(ctx context.Context, actor Actor, identifier string) error {
	site, err := m.loadOwned(ctx, actor, identifier)
	if err != nil {
		return err
	}
	if err := m.allowWrite(ctx, actor); err != nil {
		return err
	}

	if site.CustomDomain != "" {
		if err := m.releaseMapping(ctx, site.CustomDomain, site.Identifier); err != nil {
			return internalError("remove domain mapping", err)
		}
	}
	if err := m.index.DeleteSite(ctx, site.Identifier); err != nil {
		return internalError("delete site", err)
	}
	if err := m.index.RemoveOwnership(ctx, site.OwnerID, site.Identifier); err != nil {
		return internalError("remove ownership", err)
	}

	if site.CustomDomain != "" {
		m.dispatch(ctx, opDetach, site.CustomDomain)
	}

	m.logger.InfoContext(ctx, "site deleted", slog.String("identifier", site.Identifier))
	return nil
}

// DomainStatus is a diagnostic view of one domain.
type DomainStatus struct {
	Site    *SiteSummary
	Domain  string
	Mapping string
}

// SiteSummary is the part of a site record safe to expose in diagnostics.
type SiteSummary struct {
	Identifier   string
	CustomDomain string
	Verified     bool
	// Routable is true when the request router would serve this site for
	// the inspected domain.
	Routable bool
}

// Inspect reports the raw mapping for domain and the site it resolves to.
func (m *Manager) Inspect(ctx context.Context, domain string) (*DomainStatus, error) {
	domain = dnsverify.NormalizeDomain(domain)
	if domain == "" {
		return nil, newError(KindValidation, "Domain parameter required")
	}

	status := &DomainStatus{Domain: domain}

	mapping, err := m.index.DomainMapping(ctx, domain)
	switch {
	case errors.Is(err, sites.ErrDomainNotMapped):
	case err != nil:
		return nil, internalError("get domain mapping", err)
	default:
		status.Mapping = mapping
	}

	site, err := m.index.GetSiteByDomain(ctx, domain)
	switch {
	case errors.Is(err, sites.ErrSiteNotFound):
	case err != nil:
		return nil, internalError("get site by domain", err)
	default:
		status.Site = &SiteSummary{
			Identifier:   site.Identifier,
			CustomDomain: site.CustomDomain,
			Verified:     site.Verified,
			Routable:     site.Verified && site.CustomDomain == domain,
		}
	}

	return status, nil
}
