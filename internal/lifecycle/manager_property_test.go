package lifecycle_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dmitrymomot/bxsite/internal/lifecycle"
	"github.com/dmitrymomot/bxsite/internal/sites"
	"github.com/dmitrymomot/bxsite/pkg/dnsverify"
	"github.com/dmitrymomot/bxsite/pkg/kv"
)

type opKind int

const (
	opPublish opKind = iota
	opVerify
	opDelete
)

type op struct {
	Kind    opKind
	Site    int
	Domain  int
	Account int
	// DNSReady publishes every claimant's TXT record before the op runs.
	DNSReady bool
}

func (o op) String() string {
	return fmt.Sprintf("{%d site=%d domain=%d acct=%d dns=%t}", o.Kind, o.Site, o.Domain, o.Account, o.DNSReady)
}

var (
	propSites    = []string{"alpha", "bravo", "charlie"}
	propDomains  = []string{"", "one.example.com", "two.example.com", "three.example.org"}
	propAccounts = []lifecycle.Actor{{AccountID: "alice"}, {AccountID: "bob"}}
)

func genOp() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(int(opPublish), int(opDelete)),
		gen.IntRange(0, len(propSites)-1),
		gen.IntRange(0, len(propDomains)-1),
		gen.IntRange(0, len(propAccounts)-1),
		gen.Bool(),
	).Map(func(v []any) op {
		return op{
			Kind:     opKind(v[0].(int)),
			Site:     v[1].(int),
			Domain:   v[2].(int),
			Account:  v[3].(int),
			DNSReady: v[4].(bool),
		}
	})
}

// claimantZone answers TXT lookups with the records of every site that
// currently claims the domain, but only while ready is set.
type claimantZone struct {
	idx   *sites.Index
	ready bool
}

func (z *claimantZone) resolver() dnsverify.Resolver {
	return dnsverify.ResolverFunc{
		ID: "claimants",
		Fn: func(ctx context.Context, host string) ([]string, error) {
			if !z.ready {
				return nil, nil
			}
			var out []string
			err := z.idx.ScanSites(ctx, func(s *sites.Site) error {
				if s.CustomDomain != "" && dnsverify.TXTHost(s.CustomDomain) == host {
					out = append(out, dnsverify.TXTValue(s.VerificationToken))
				}
				return nil
			})
			return out, err
		},
	}
}

func TestManager_MappingInvariantHolds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150

	properties := gopter.NewProperties(parameters)

	properties.Property("mappings always point at a verified claimant", prop.ForAll(
		func(ops []op) (bool, error) {
			ctx := context.Background()
			store := kv.NewMemory(kv.WithCleanupInterval(0))
			defer store.Close()

			idx := sites.NewIndex(store)
			z := &claimantZone{idx: idx}
			m := lifecycle.New(idx,
				dnsverify.New(dnsverify.WithResolvers(z.resolver())),
				lifecycle.WithPlatformDomain(platform),
			)

			for i, o := range ops {
				z.ready = o.DNSReady
				actor := propAccounts[o.Account]
				identifier := propSites[o.Site]

				var err error
				switch o.Kind {
				case opPublish:
					_, err = m.Publish(ctx, actor, lifecycle.PublishInput{
						Identifier:   identifier,
						Content:      fmt.Sprintf("step %d", i),
						CustomDomain: propDomains[o.Domain],
					})
				case opVerify:
					_, err = m.Verify(ctx, actor, identifier)
				case opDelete:
					err = m.Delete(ctx, actor, identifier)
				}
				if err != nil && lifecycle.KindOf(err) == lifecycle.KindInternal {
					return false, fmt.Errorf("step %d %v: %w", i, o, err)
				}

				if err := m.Wait(ctx); err != nil {
					return false, err
				}
				if err := checkInvariant(ctx, store, idx); err != nil {
					return false, fmt.Errorf("step %d %v: %w", i, o, err)
				}
			}
			return true, nil
		},
		gen.SliceOf(genOp()),
	))

	properties.TestingRun(t)
}
