// Package config builds a string fetcher for URLs from environment settings.
package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/caarlos0/env/v11"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/fetchcache"
	"github.com/unkn0wn-root/fetchcache/codec"
	"github.com/unkn0wn-root/fetchcache/origin/httpget"
	"github.com/unkn0wn-root/fetchcache/store"
	bigcachestore "github.com/unkn0wn-root/fetchcache/store/bigcache"
	"github.com/unkn0wn-root/fetchcache/store/local"
	memcachestore "github.com/unkn0wn-root/fetchcache/store/memcache"
	redisstore "github.com/unkn0wn-root/fetchcache/store/redis"
	ristrettostore "github.com/unkn0wn-root/fetchcache/store/ristretto"
)

// Config selects the store and tunes the fetcher.
//
// StoreURL forms:
//
//	redis://[user:pass@]host:port/db, rediss://...
//	memcache://host:port[,host:port...]
//	mem://
//	ristretto://?max_cost=<bytes>
//	bigcache://            (entries live for TTL)
type Config struct {
	StoreURL       string        `env:"FETCHCACHE_STORE_URL" envDefault:"mem://"`
	TTL            time.Duration `env:"FETCHCACHE_TTL" envDefault:"10s"`
	ContentPrefix  string        `env:"FETCHCACHE_CONTENT_PREFIX" envDefault:"result:"`
	CounterPrefix  string        `env:"FETCHCACHE_COUNTER_PREFIX" envDefault:"count:"`
	CollapseMisses bool          `env:"FETCHCACHE_COLLAPSE_MISSES" envDefault:"false"`
	OriginTimeout  time.Duration `env:"FETCHCACHE_ORIGIN_TIMEOUT" envDefault:"30s"`
	OriginRetries  int           `env:"FETCHCACHE_ORIGIN_RETRIES" envDefault:"3"`
	MaxBodyBytes   int64         `env:"FETCHCACHE_MAX_BODY_BYTES" envDefault:"16777216"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.TTL <= 0 {
		return Config{}, fmt.Errorf("config: ttl must be positive, got %s", cfg.TTL)
	}
	return cfg, nil
}

// OpenStore connects the store named by StoreURL. Remote stores are checked
// for reachability before returning. The caller owns the result.
func (c Config) OpenStore(ctx context.Context) (store.Store, error) {
	scheme, rest, ok := strings.Cut(c.StoreURL, "://")
	if !ok {
		return nil, fmt.Errorf("config: store url %q has no scheme", c.StoreURL)
	}
	switch scheme {
	case "redis", "rediss":
		opt, err := goredis.ParseURL(c.StoreURL)
		if err != nil {
			return nil, fmt.Errorf("could not configure redis store: %w", err)
		}
		rdb := goredis.NewClient(opt)
		// check redis connection
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("could not connect to redis store: %w", err)
		}
		return redisstore.New(redisstore.Config{Client: rdb, CloseClient: true})
	case "memcache":
		servers := strings.Split(strings.TrimSuffix(rest, "/"), ",")
		if len(servers) == 0 || servers[0] == "" {
			return nil, fmt.Errorf("config: memcache url %q names no servers", c.StoreURL)
		}
		mc := memcache.New(servers...)
		if err := mc.Ping(); err != nil {
			return nil, fmt.Errorf("could not connect to memcache store: %w", err)
		}
		return memcachestore.New(memcachestore.Config{Client: mc, CloseClient: true})
	case "mem":
		return local.New(local.Config{CleanupInterval: time.Minute}), nil
	case "ristretto":
		maxCost := int64(64 << 20)
		if _, q, ok := strings.Cut(rest, "?max_cost="); ok {
			n, err := strconv.ParseInt(q, 10, 64)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("config: bad ristretto max_cost %q", q)
			}
			maxCost = n
		}
		return ristrettostore.New(ristrettostore.Config{
			NumCounters: 1e6,
			MaxCost:     maxCost,
			BufferItems: 64,
		})
	case "bigcache":
		return bigcachestore.New(bigcachestore.Config{LifeWindow: c.TTL})
	default:
		return nil, fmt.Errorf("config: unsupported store scheme %q", scheme)
	}
}

// NewFetcher opens the store and returns a URL fetcher that owns it.
func (c Config) NewFetcher(ctx context.Context, logger fetchcache.Logger, hooks fetchcache.Hooks) (fetchcache.Fetcher[string], error) {
	st, err := c.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	origin := httpget.New(
		httpget.WithMaxRetries(c.OriginRetries),
		httpget.WithMaxBody(c.MaxBodyBytes),
		// the fetcher enforces OriginTimeout through ctx
		httpget.WithTimeout(0),
	)
	f, err := fetchcache.New(fetchcache.Options[string]{
		Store:          st,
		Origin:         origin.Fetch,
		Codec:          codec.String{},
		TTL:            c.TTL,
		ContentPrefix:  c.ContentPrefix,
		CounterPrefix:  c.CounterPrefix,
		CollapseMisses: c.CollapseMisses,
		OriginTimeout:  c.OriginTimeout,
		CloseStore:     true,
		Logger:         logger,
		Hooks:          hooks,
	})
	if err != nil {
		_ = st.Close(ctx)
		return nil, err
	}
	return f, nil
}
