package network

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	libredis "github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spikeekips/mitum-voting/util/cache"
	"github.com/spikeekips/mitum-voting/util/logging"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

var DefaultRateLimitPrefix = "mitum-voting:limiter"

// RateLimitRule applies rate to the clients in ipnet.
type RateLimitRule struct {
	ipnet *net.IPNet
	rate  limiter.Rate
}

func NewRateLimitRule(ipnet *net.IPNet, rate limiter.Rate) RateLimitRule {
	return RateLimitRule{ipnet: ipnet, rate: rate}
}

func (rr RateLimitRule) Rate() limiter.Rate {
	return rr.rate
}

func (rr RateLimitRule) Match(ip net.IP) bool {
	if rr.ipnet == nil {
		return false
	}

	return rr.ipnet.Contains(ip)
}

// RateLimit finds the rate of the client ip; the first matched rule wins,
// defaultRate otherwise.
type RateLimit struct {
	*logging.Logging
	cache       *cache.GCache
	rules       []RateLimitRule
	defaultRate limiter.Rate
}

func NewRateLimit(rules []RateLimitRule, defaultRate limiter.Rate) *RateLimit {
	ca, _ := cache.NewGCache("lru", 100*100, time.Hour*3)

	return &RateLimit{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "ratelimit")
		}),
		cache:       ca,
		rules:       rules,
		defaultRate: defaultRate,
	}
}

func (rl *RateLimit) Rate(ip net.IP) limiter.Rate {
	if i, found := rl.cache.Get(ip.String()); found {
		if r, ok := i.(limiter.Rate); ok {
			return r
		}
	}

	l := rl.rate(ip)
	_ = rl.cache.Set(ip.String(), l, 0)

	return l
}

func (rl *RateLimit) rate(ip net.IP) limiter.Rate {
	for i := range rl.rules {
		r := rl.rules[i]
		if r.Match(ip) {
			return r.Rate()
		}
	}

	return rl.defaultRate
}

// NoLimitRate does not limit anything.
var NoLimitRate = limiter.Rate{Limit: -1}

// ParseRate parses the formatted rate like "10-M"; "unlimited" is
// NoLimitRate.
func ParseRate(s string) (limiter.Rate, error) {
	if s == "unlimited" {
		return NoLimitRate, nil
	}

	r, err := limiter.NewRateFromFormatted(s)
	if err != nil {
		return limiter.Rate{}, errors.Wrapf(err, "invalid rate, %q", s)
	}

	return r, nil
}

type RateLimitMiddleware struct {
	lt    *RateLimit
	store limiter.Store
}

func NewRateLimitMiddleware(lt *RateLimit, store limiter.Store) *RateLimitMiddleware {
	if store == nil {
		store = limitermemory.NewStoreWithOptions(limiter.StoreOptions{CleanUpInterval: time.Hour})
	}

	return &RateLimitMiddleware{lt: lt, store: store}
}

func (mw *RateLimitMiddleware) limit(w http.ResponseWriter, r *http.Request) bool {
	ip := limiter.GetIP(r, limiter.Options{TrustForwardHeader: true})
	rate := mw.lt.Rate(ip)

	switch {
	case rate.Limit < 0: // NOTE nolimit
		w.Header().Add("X-RateLimit-Limit", "unlimited")

		return false
	case rate.Limit < 1 || rate.Period < 1: // NOTE block all requests
		HTTPError(w, http.StatusTooManyRequests)

		return true
	}

	rctx, err := mw.store.Get(r.Context(), ip.String(), rate)
	if err != nil {
		mw.lt.Log().Error().Err(err).Str("ip", ip.String()).Msg("failed to get rate limit context")

		return false
	}

	w.Header().Add("X-RateLimit-Limit", strconv.FormatInt(rctx.Limit, 10))
	w.Header().Add("X-RateLimit-Remaining", strconv.FormatInt(rctx.Remaining, 10))
	w.Header().Add("X-RateLimit-Reset", strconv.FormatInt(rctx.Reset, 10))

	if rctx.Reached {
		stdlib.DefaultLimitReachedHandler(w, r)

		return true
	}

	return false
}

func (mw *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mw.limit(w, r) {
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimitStoreFromURI creates the store of the counters; "memory://" or
// "redis://<host>:<port>/<db>". "prefix" query sets the key prefix.
func RateLimitStoreFromURI(s string) (limiter.Store, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, errors.Wrapf(err, "wrong ratelimit store uri, %q", s)
	}

	prefix := DefaultRateLimitPrefix
	if i := u.Query().Get("prefix"); len(i) > 0 {
		prefix = i
	}

	switch u.Scheme {
	case "memory":
		i, err := newMemoryRateLimitStore(u, prefix)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create ratelimit memory store")
		}

		return i, nil
	case "redis":
		i, err := newRedisRateLimitStore(u, prefix)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create ratelimit redis store")
		}

		return i, nil
	default:
		return nil, errors.Errorf("unknown ratelimit store uri, %q", u.String())
	}
}

func newMemoryRateLimitStore(u *url.URL, prefix string) (limiter.Store, error) {
	cleanup := limiter.DefaultCleanUpInterval
	if i := u.Query().Get("cleanup-interval"); len(i) > 0 {
		d, err := time.ParseDuration(i)
		if err != nil {
			return nil, err
		}

		cleanup = d
	}

	return limitermemory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: cleanup,
	}), nil
}

func newRedisRateLimitStore(u *url.URL, prefix string) (limiter.Store, error) {
	q := u.Query()
	q.Del("prefix")
	u.RawQuery = q.Encode()

	opt, err := libredis.ParseURL(u.String())
	if err != nil {
		return nil, err
	}

	return limiterredis.NewStoreWithOptions(libredis.NewClient(opt), limiter.StoreOptions{
		Prefix: prefix,
	})
}
