//go:build property

package responsecache_test

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"

	"github.com/rail-service/bridge_service/internal/domain/services/responsecache"
	"github.com/rail-service/bridge_service/internal/infrastructure/cache"
)

func newCache() *responsecache.Cache {
	return responsecache.New(cache.NewMemoryStorage(zap.NewNop()), zap.NewNop())
}

// Property: Key(url, body) does not depend on map insertion order
func TestKeyDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	c := newCache()

	properties.Property("equal bodies produce equal keys", prop.ForAll(
		func(url string, keys []string, values []string) bool {
			forward := make(map[string]string)
			backward := make(map[string]string)
			n := len(keys)
			if len(values) < n {
				n = len(values)
			}
			for i := 0; i < n; i++ {
				forward[keys[i]] = values[i]
			}
			for i := n - 1; i >= 0; i-- {
				if _, seen := backward[keys[i]]; !seen {
					backward[keys[i]] = forward[keys[i]]
				}
			}

			k1, err1 := c.Key(url, forward)
			k2, err2 := c.Key(url, backward)
			return err1 == nil && err2 == nil && k1 == k2 &&
				strings.HasPrefix(k1, c.Prefix()+url+":")
		},
		gen.AlphaString(),
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("different queries produce different keys", prop.ForAll(
		func(a, b string) bool {
			if a == b {
				return true
			}
			k1, _ := c.Key("https://bridge.example/getTokens/search", map[string]string{"query": a})
			k2, _ := c.Key("https://bridge.example/getTokens/search", map[string]string{"query": b})
			return k1 != k2
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// Property: a stored page reads back unchanged
func TestUpdateRetrieveRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	ctx := context.Background()
	c := newCache()

	properties.Property("retrieve returns what update stored", prop.ForAll(
		func(symbols []string, page string) bool {
			if page == "" || page == "timestamp" {
				page = responsecache.DefaultPage
			}
			key, err := c.Key("https://bridge.example/getTokens/popular", symbols)
			if err != nil {
				return false
			}
			if err := c.Update(ctx, symbols, key, page); err != nil {
				return false
			}

			var got []string
			if !c.RetrieveInto(ctx, key, page, &got) {
				return false
			}
			if len(got) != len(symbols) {
				return false
			}
			for i := range got {
				if got[i] != symbols[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
