package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/primefit/storefront/api/responses"
	"github.com/primefit/storefront/pkg/config"
	pkgerrors "github.com/primefit/storefront/pkg/errors"
	"github.com/primefit/storefront/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
)

// AdminPasswordHeader carries the shared admin secret.
const AdminPasswordHeader = "X-Admin-Password"

type failureCounter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (string, error)
	RateLimitKey(scope string) string
}

// AdminGate rejects requests without the configured admin password. Failed
// attempts are counted per client IP in a fixed window; once the limit is
// reached the IP gets 429 until the window expires, even with the right
// password.
// The client IP is the connection address unless it belongs to a configured
// trusted proxy.
func AdminGate(cfg config.AdminConfig, counter failureCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	secret := []byte(cfg.Password)
	throttled := counter != nil && cfg.FailureWindow > 0 && cfg.FailureIPLimit > 0
	proxies, invalid := parseTrustedProxies(cfg.ProxyList())
	if len(invalid) > 0 && logg != nil {
		logg.Warn(logg.WithField(context.Background(), "entries", invalid), "admin.trusted_proxies.invalid")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r, proxies)
			key := ""
			if throttled {
				key = counter.RateLimitKey("admin_failures:" + ip)
				failures, err := currentFailures(ctx, counter, key)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "admin rate limiting"))
					return
				}
				if failures >= int64(cfg.FailureIPLimit) {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"ip":             ip,
							"failures":       failures,
							"limit":          cfg.FailureIPLimit,
							"window_seconds": int(cfg.FailureWindow.Seconds()),
						}), "admin.rate_limit.blocked")
					}
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many failed attempts"))
					return
				}
			}

			provided := []byte(r.Header.Get(AdminPasswordHeader))
			if len(secret) == 0 || subtle.ConstantTimeCompare(provided, secret) != 1 {
				if throttled {
					if _, err := counter.IncrWithTTL(ctx, key, cfg.FailureWindow); err != nil && logg != nil {
						logg.Warn(logg.WithField(ctx, "error", err.Error()), "admin.rate_limit.count_failed")
					}
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unauthorized"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func currentFailures(ctx context.Context, counter failureCounter, key string) (int64, error) {
	raw, err := counter.Get(ctx, key)
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

type trustedProxies []netip.Prefix

func parseTrustedProxies(entries []string) (trustedProxies, []string) {
	var (
		proxies trustedProxies
		invalid []string
	)
	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				invalid = append(invalid, entry)
				continue
			}
			proxies = append(proxies, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			invalid = append(invalid, entry)
			continue
		}
		addr = addr.Unmap()
		proxies = append(proxies, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return proxies, invalid
}

func (t trustedProxies) contains(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range t {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP keys the failure throttle. Forwarding headers count only when the
// connection comes from a trusted proxy; X-Forwarded-For is then walked from
// the right and the first hop that is not a trusted proxy wins.
func clientIP(r *http.Request, trusted trustedProxies) string {
	if r == nil {
		return ""
	}
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		remote = host
	}
	remoteAddr, err := netip.ParseAddr(remote)
	if err != nil || !trusted.contains(remoteAddr) {
		return remote
	}

	var hops []string
	for _, header := range r.Header.Values("X-Forwarded-For") {
		for _, part := range strings.Split(header, ",") {
			if hop := strings.TrimSpace(part); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	client := remote
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(hops[i])
		if err != nil {
			break
		}
		client = addr.Unmap().String()
		if !trusted.contains(addr) {
			return client
		}
	}
	if len(hops) == 0 {
		if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
			return addr.Unmap().String()
		}
	}
	return client
}
