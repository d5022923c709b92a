package sites_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bxsite/internal/sites"
	"github.com/dmitrymomot/bxsite/pkg/kv"
)

func newIndex(t *testing.T) (*sites.Index, *kv.Memory) {
	t.Helper()

	store := kv.NewMemory(kv.WithCleanupInterval(0))
	t.Cleanup(func() { _ = store.Close() })
	return sites.NewIndex(store), store
}

var baseTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestIndex_PutGetSite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx, store := newIndex(t)

	site := &sites.Site{
		Identifier:        "myslug",
		Content:           "# Hello",
		OwnerID:           "acct-1",
		UpdatedAt:         baseTime,
		CustomDomain:      "Example.com",
		VerificationToken: "tok",
	}
	require.NoError(t, idx.PutSite(ctx, site))

	got, err := idx.GetSite(ctx, "MySlug")
	require.NoError(t, err)
	assert.Equal(t, "myslug", got.Identifier)
	assert.Equal(t, "example.com", got.CustomDomain, "domain is normalized on write")
	assert.Equal(t, sites.StatePendingVerification, got.State())
	assert.Equal(t, "Example.com", site.CustomDomain, "caller's record is not mutated")

	_, err = store.Get(ctx, "site:myslug")
	require.NoError(t, err, "record lives under site:<identifier>")
}

func TestIndex_GetSite_Missing(t *testing.T) {
	t.Parallel()

	idx, _ := newIndex(t)

	_, err := idx.GetSite(context.Background(), "absent")
	require.ErrorIs(t, err, sites.ErrSiteNotFound)

	_, err = idx.GetSite(context.Background(), "x")
	require.ErrorIs(t, err, sites.ErrSiteNotFound, "invalid identifiers are a miss")
}

func TestIndex_PutSite_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx, _ := newIndex(t)

	tests := []struct {
		name string
		site *sites.Site
		err  error
	}{
		{name: "nil", site: nil, err: sites.ErrInvalidRecord},
		{name: "short identifier", site: &sites.Site{Identifier: "ab", OwnerID: "a"}, err: sites.ErrInvalidIdentifier},
		{name: "bad characters", site: &sites.Site{Identifier: "my_slug", OwnerID: "a"}, err: sites.ErrInvalidIdentifier},
		{name: "missing owner", site: &sites.Site{Identifier: "myslug"}, err: sites.ErrInvalidRecord},
		{name: "verified without domain", site: &sites.Site{Identifier: "myslug", OwnerID: "a", Verified: true}, err: sites.ErrInvalidRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, idx.PutSite(ctx, tt.site), tt.err)
		})
	}
}

func TestIndex_PutSite_LastWriterWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx, _ := newIndex(t)

	require.NoError(t, idx.PutSite(ctx, &sites.Site{Identifier: "myslug", OwnerID: "a", Content: "v2", UpdatedAt: baseTime}))

	err := idx.PutSite(ctx, &sites.Site{Identifier: "myslug", OwnerID: "a", Content: "v1", UpdatedAt: baseTime.Add(-time.Second)})
	require.ErrorIs(t, err, sites.ErrStaleWrite)

	require.NoError(t, idx.PutSite(ctx, &sites.Site{Identifier: "myslug", OwnerID: "a", Content: "v2b", UpdatedAt: baseTime}))

	got, err := idx.GetSite(ctx, "myslug")
	require.NoError(t, err)
	require.Equal(t, "v2b", got.Content)
}

func TestIndex_DomainMapping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx, store := newIndex(t)

	require.NoError(t, idx.PutSite(ctx, &sites.Site{
		Identifier:        "myslug",
		OwnerID:           "a",
		UpdatedAt:         baseTime,
		CustomDomain:      "example.com",
		VerificationToken: "tok",
		Verified:          true,
	}))

	_, err := idx.GetSiteByDomain(ctx, "example.com")
	require.ErrorIs(t, err, sites.ErrSiteNotFound, "no mapping yet")

	require.NoError(t, idx.SetDomainMapping(ctx, " EXAMPLE.com. ", "myslug"))

	raw, err := store.Get(ctx, "domain:example.com")
	require.NoError(t, err)
	require.Equal(t, "myslug", string(raw))

	got, err := idx.GetSiteByDomain(ctx, "Example.COM")
	require.NoError(t, err)
	require.Equal(t, "myslug", got.Identifier)

	mapped, err := idx.DomainMapping(ctx, "example.com")
	require.NoError(t, err)
	require.Equal(t, "myslug", mapped)

	require.NoError(t, idx.RemoveDomainMapping(ctx, "example.com"))
	_, err = idx.DomainMapping(ctx, "example.com")
	require.ErrorIs(t, err, sites.ErrDomainNotMapped)

	require.NoError(t, idx.RemoveDomainMapping(ctx, "example.com"), "removing twice is fine")
	require.ErrorIs(t, idx.SetDomainMapping(ctx, "", "myslug"), sites.ErrInvalidRecord)
}

func TestIndex_GetSiteByDomain_DanglingMapping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx, _ := newIndex(t)

	require.NoError(t, idx.SetDomainMapping(ctx, "example.com", "gone-site"))

	_, err := idx.GetSiteByDomain(ctx, "example.com")
	require.ErrorIs(t, err, sites.ErrSiteNotFound)
}

func TestIndex_Ownership(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx, _ := newIndex(t)

	owned, err := idx.ListByOwner(ctx, "acct-1")
	require.NoError(t, err)
	require.Empty(t, owned)

	require.NoError(t, idx.AddOwnership(ctx, "acct-1", "zeta"))
	require.NoError(t, idx.AddOwnership(ctx, "acct-1", "alpha"))
	require.NoError(t, idx.AddOwnership(ctx, "acct-1", "alpha"))
	require.NoError(t, idx.AddOwnership(ctx, "acct-2", "other"))

	owned, err = idx.ListByOwner(ctx, "acct-1")
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "zeta"}, owned)

	require.NoError(t, idx.RemoveOwnership(ctx, "acct-1", "zeta"))
	owned, err = idx.ListByOwner(ctx, "acct-1")
	require.NoError(t, err)
	require.Equal(t, []string{"alpha"}, owned)

	owned, err = idx.ListByOwner(ctx, "")
	require.NoError(t, err)
	require.Empty(t, owned)
}

func TestIndex_DeleteAndScan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx, store := newIndex(t)

	for _, id := range []string{"one", "two", "three"} {
		require.NoError(t, idx.PutSite(ctx, &sites.Site{Identifier: id, OwnerID: "a", UpdatedAt: baseTime}))
	}
	require.NoError(t, store.Set(ctx, "site:broken", []byte("{"), 0))
	require.NoError(t, idx.DeleteSite(ctx, "two"))

	var seen []string
	require.NoError(t, idx.ScanSites(ctx, func(s *sites.Site) error {
		seen = append(seen, s.Identifier)
		return nil
	}))
	require.Equal(t, []string{"one", "three"}, seen)
}

func TestSite_State(t *testing.T) {
	t.Parallel()

	require.Equal(t, sites.StateNoDomain, (&sites.Site{}).State())
	require.Equal(t, sites.StatePendingVerification, (&sites.Site{CustomDomain: "a.com"}).State())
	require.Equal(t, sites.StateVerified, (&sites.Site{CustomDomain: "a.com", Verified: true}).State())
}

func TestValidIdentifier(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"abc", "my-site", "a1b2c3", "---", "abcdefghijklmnopqrstuvwxyz0123"} {
		assert.True(t, sites.ValidIdentifier(ok), ok)
	}
	for _, bad := range []string{"", "ab", "ABC", "my site", "my_site", "abcdefghijklmnopqrstuvwxyz01234", "émoji"} {
		assert.False(t, sites.ValidIdentifier(bad), bad)
	}
	require.Equal(t, "myslug", sites.NormalizeIdentifier("  MySlug "))
}
