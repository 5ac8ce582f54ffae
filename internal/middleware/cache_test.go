package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/config"
)

func keyFor(t *testing.T, cfg config.CacheConfig, target string, userID float64) string {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	// Routed requests carry the template in Path(); the key must not
	// depend on it.
	c.SetPath("/v1/households/:id")
	c.Set("user_id", userID)
	return cacheKeyFrom(cfg, c)
}

// Two requests matching the same route template but different resources, or
// the same resource for different callers, must never share a cache entry.
func TestCacheKeySeparatesResourcesAndUsers(t *testing.T) {
	cfg := config.CacheConfig{KeyStrategy: "route_query", Prefix: "cache"}

	k5 := keyFor(t, cfg, "/v1/households/5", 2)
	k7 := keyFor(t, cfg, "/v1/households/7", 2)
	if k5 == k7 {
		t.Fatalf("households 5 and 7 share cache key %s", k5)
	}

	other := keyFor(t, cfg, "/v1/households/5", 3)
	if k5 == other {
		t.Fatalf("users 2 and 3 share cache key %s for the same path", k5)
	}

	again := keyFor(t, cfg, "/v1/households/5", 2)
	if k5 != again {
		t.Fatalf("same user and path produced different keys: %s vs %s", k5, again)
	}
}

func TestCacheKeyIncludesQuery(t *testing.T) {
	cfg := config.CacheConfig{KeyStrategy: "route_query", Prefix: "cache"}

	p1 := keyFor(t, cfg, "/v1/households?page=1", 2)
	p2 := keyFor(t, cfg, "/v1/households?page=2", 2)
	if p1 == p2 {
		t.Fatalf("pages 1 and 2 share cache key %s", p1)
	}
}
