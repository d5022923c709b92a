package sites

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dmitrymomot/bxsite/pkg/dnsverify"
	"github.com/dmitrymomot/bxsite/pkg/kv"
)

const (
	SitePrefix   = "site:"
	DomainPrefix = "domain:"
	OwnerPrefix  = "sites-by-owner:"
)

// SiteKey returns the store key of a site record.
func SiteKey(identifier string) string { return SitePrefix + identifier }

// DomainKey returns the store key of a domain mapping.
func DomainKey(domain string) string { return DomainPrefix + dnsverify.NormalizeDomain(domain) }

// OwnerKey returns the store key of an ownership set.
func OwnerKey(ownerID string) string { return OwnerPrefix + ownerID }

// Index reads and writes tenant records. It is safe for concurrent use;
// every method is a single-key operation against the store, except
// GetSiteByDomain and PutSite which issue two.
type Index struct {
	store kv.Store
}

// NewIndex creates an Index over store.
func NewIndex(store kv.Store) *Index {
	return &Index{store: store}
}

// GetSite returns the record for identifier or ErrSiteNotFound.
func (x *Index) GetSite(ctx context.Context, identifier string) (*Site, error) {
	identifier = NormalizeIdentifier(identifier)
	if !ValidIdentifier(identifier) {
		return nil, ErrSiteNotFound
	}

	var s Site
	if err := kv.GetJSON(ctx, x.store, SiteKey(identifier), &s); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return &s, nil
}

// GetSiteByDomain resolves a domain through the mapping to its site record.
// A missing mapping and a mapping to a missing record are both reported
// as ErrSiteNotFound.
func (x *Index) GetSiteByDomain(ctx context.Context, domain string) (*Site, error) {
	identifier, err := x.DomainMapping(ctx, domain)
	if err != nil {
		if errors.Is(err, ErrDomainNotMapped) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	return x.GetSite(ctx, identifier)
}

// DomainMapping returns the identifier mapped to domain or ErrDomainNotMapped.
func (x *Index) DomainMapping(ctx context.Context, domain string) (string, error) {
	if dnsverify.NormalizeDomain(domain) == "" {
		return "", ErrDomainNotMapped
	}

	data, err := x.store.Get(ctx, DomainKey(domain))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", ErrDomainNotMapped
		}
		return "", errors.Join(ErrStoreFailed, err)
	}

	identifier := string(data)
	if identifier == "" {
		return "", ErrDomainNotMapped
	}
	return identifier, nil
}

// PutSite upserts a record. A write whose UpdatedAt is older than the
// stored record's is rejected with ErrStaleWrite.
func (x *Index) PutSite(ctx context.Context, s *Site) error {
	if s == nil {
		return ErrInvalidRecord
	}
	rec := s.Clone()
	rec.Identifier = NormalizeIdentifier(rec.Identifier)
	rec.CustomDomain = dnsverify.NormalizeDomain(rec.CustomDomain)
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	if err := rec.validate(); err != nil {
		return err
	}

	current, err := x.GetSite(ctx, rec.Identifier)
	switch {
	case errors.Is(err, ErrSiteNotFound):
	case err != nil:
		return err
	case current.UpdatedAt.After(rec.UpdatedAt):
		return ErrStaleWrite
	}

	if err := kv.SetJSON(ctx, x.store, SiteKey(rec.Identifier), rec, 0); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// DeleteSite removes the record. It does not touch the mapping or the
// ownership set.
func (x *Index) DeleteSite(ctx context.Context, identifier string) error {
	if err := x.store.Delete(ctx, SiteKey(NormalizeIdentifier(identifier))); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// SetDomainMapping points domain at identifier.
func (x *Index) SetDomainMapping(ctx context.Context, domain, identifier string) error {
	identifier = NormalizeIdentifier(identifier)
	if dnsverify.NormalizeDomain(domain) == "" || !ValidIdentifier(identifier) {
		return ErrInvalidRecord
	}
	if err := x.store.Set(ctx, DomainKey(domain), []byte(identifier), 0); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// RemoveDomainMapping deletes the mapping for domain. Removing an absent
// mapping is not an error.
func (x *Index) RemoveDomainMapping(ctx context.Context, domain string) error {
	if dnsverify.NormalizeDomain(domain) == "" {
		return nil
	}
	if err := x.store.Delete(ctx, DomainKey(domain)); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// ListByOwner returns the identifiers owned by ownerID, sorted.
func (x *Index) ListByOwner(ctx context.Context, ownerID string) ([]string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return []string{}, nil
	}
	members, err := x.store.SMembers(ctx, OwnerKey(ownerID))
	if err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	slices.Sort(members)
	return members, nil
}

func (x *Index) AddOwnership(ctx context.Context, ownerID, identifier string) error {
	if err := x.store.SAdd(ctx, OwnerKey(ownerID), NormalizeIdentifier(identifier)); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

func (x *Index) RemoveOwnership(ctx context.Context, ownerID, identifier string) error {
	if err := x.store.SRem(ctx, OwnerKey(ownerID), NormalizeIdentifier(identifier)); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// ScanSites calls fn for every stored site record. Records that vanish or
// fail to decode during the scan are skipped.
func (x *Index) ScanSites(ctx context.Context, fn func(*Site) error) error {
	return x.store.Scan(ctx, SitePrefix, func(key string) error {
		s, err := x.GetSite(ctx, strings.TrimPrefix(key, SitePrefix))
		if err != nil {
			if errors.Is(err, ErrSiteNotFound) || errors.Is(err, kv.ErrUnmarshal) {
				return nil
			}
			return err
		}
		return fn(s)
	})
}
