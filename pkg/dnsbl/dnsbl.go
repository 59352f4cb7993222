package dnsbl

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/modsentry/modsentry/pkg/config"
)

// cachedResult is one cached lookup with its expiry
type cachedResult struct {
	listed    bool
	expiresAt time.Time
}

// Stats tracks lookup performance
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Errors  int64 `json:"errors"`
	Listed  int64 `json:"listed"`
	Lookups int64 `json:"lookups"`
}

// Checker queries DNS blocklist zones for domains found in messages.
// Results are cached; NXDOMAIN means not listed, any A record in
// 127.0.0.0/8 means listed. Lookup failures degrade to "not listed".
type Checker struct {
	resolver *net.Resolver
	cache    *lru.Cache[string, cachedResult]
	zones    []string
	timeout  time.Duration
	ttl      time.Duration
	logger   *zap.Logger

	hits    atomic.Int64
	misses  atomic.Int64
	errors  atomic.Int64
	listed  atomic.Int64
	lookups atomic.Int64
}

// NewChecker builds a checker from config
func NewChecker(cfg config.DNSBLConfig, logger *zap.Logger) (*Checker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 1000
	}
	cache, err := lru.New[string, cachedResult](size)
	if err != nil {
		return nil, err
	}

	ttl := 30 * time.Minute
	if cfg.CacheTTL != "" {
		if parsed, err := time.ParseDuration(cfg.CacheTTL); err == nil {
			ttl = parsed
		}
	}
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &Checker{
		resolver: &net.Resolver{PreferGo: true},
		cache:    cache,
		zones:    cfg.Zones,
		timeout:  timeout,
		ttl:      ttl,
		logger:   logger,
	}, nil
}

// IsListed reports whether the domain appears on any configured zone
func (c *Checker) IsListed(ctx context.Context, domain string) bool {
	domain = normalizeDomain(domain)
	if domain == "" || len(c.zones) == 0 {
		return false
	}

	if cached, ok := c.cache.Get(domain); ok && time.Now().Before(cached.expiresAt) {
		c.hits.Add(1)
		return cached.listed
	}
	c.misses.Add(1)

	listed := false
	for _, zone := range c.zones {
		if c.queryZone(ctx, domain, zone) {
			listed = true
			break
		}
	}
	if listed {
		c.listed.Add(1)
	}

	c.cache.Add(domain, cachedResult{listed: listed, expiresAt: time.Now().Add(c.ttl)})
	return listed
}

// queryZone checks one blocklist zone for the domain
func (c *Checker) queryZone(ctx context.Context, domain, zone string) bool {
	c.lookups.Add(1)

	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	addrs, err := c.resolver.LookupHost(lookupCtx, domain+"."+zone)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return false
		}
		c.errors.Add(1)
		c.logger.Debug("blocklist lookup failed",
			zap.String("domain", domain), zap.String("zone", zone), zap.Error(err))
		return false
	}

	// Blocklists answer with 127.0.0.0/8 return codes
	for _, addr := range addrs {
		if strings.HasPrefix(addr, "127.") {
			return true
		}
	}
	return false
}

// Stats returns a snapshot of lookup counters
func (c *Checker) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Errors:  c.errors.Load(),
		Listed:  c.listed.Load(),
		Lookups: c.lookups.Load(),
	}
}

// normalizeDomain extracts a bare lowercase hostname from a URL or
// domain string
func normalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#:"); i >= 0 {
		d = d[:i]
	}
	if !strings.Contains(d, ".") {
		return ""
	}
	return d
}
