// Package config collects every tunable named in spec.md §4 and §6.6
// into one struct, loaded from FEED_-prefixed environment variables
// through go-kratos/kratos/v2/config (the teacher's config-ecosystem
// convention), and applies them to the internal/scoring package's
// runtime-overridable vars so "overridable without code changes"
// holds for the whole engine, not just infra endpoints.
package config

import (
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/env"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
)

// Config is the full set of infra endpoints and scoring tunables a
// running process needs.
type Config struct {
	HTTPAddr    string
	PostgresDSN string
	RedisAddr   string
	NatsURL     string

	SessionTTLSeconds     int
	ExpiryTickSeconds     int
	HalfLifeDays          float64
	ShortHalfLifeSeconds  int
	LongHalfLifeSeconds   int
	RisingWindowSeconds   int
	RecentWindowSeconds   int
	PriorHalfLifeSeconds  int
	ReentryDelaySeconds   int
	EMAAlphaSession       float64
	EMAAlphaDB            float64
	SessionBlendAlpha     float64
	SkipWeight            float64
	PriorMinCount         int
	PriorMaxCount         int
	PriorCreatorWeight    float64
	PriorMinDecayed       float64
	TopCategoryMax        int
	RisingCategoryMax     int
	TopSubMax             int
	RisingSubMax          int
	SpecificMax           int
	TopCreatorMax         int
	RisingCreatorMax      int
	HardSkipThreshold     int
	WatchedThreshold      int
	TrendingWeight        float64
	TrendingExponent      float64
	TrendingActivityNorm  float64
	TrendingBurstFactor   float64
	RisingRateMultiplier  float64
	MinInitialRisingScore float64
	MinRawForEvergreen    float64
	EvergreenVelocityCap  float64
	DecayFactor           float64
	PersonalWeight        float64
	InterestWeight        float64
	CreatorWeight         float64
	RawWeight             float64
	TrendWeight           float64
	BayesianWeight        float64
	FeedSize              int
	NonExplore            int
}

// Default returns the spec-mandated defaults — the values the module
// runs with when no FEED_ environment variable overrides them.
func Default() Config {
	return Config{
		HTTPAddr:    ":8080",
		PostgresDSN: "postgres://localhost:5432/feed?sslmode=disable",
		RedisAddr:   "localhost:6379",
		NatsURL:     "nats://localhost:4222",

		SessionTTLSeconds:     600,
		ExpiryTickSeconds:     60,
		HalfLifeDays:          scoring.HalfLifeDays,
		ShortHalfLifeSeconds:  int(scoring.ShortHalfLife / time.Second),
		LongHalfLifeSeconds:   int(scoring.LongHalfLife / time.Second),
		RisingWindowSeconds:   int(scoring.RisingWindow / time.Second),
		RecentWindowSeconds:   int(scoring.RecentWindow / time.Second),
		PriorHalfLifeSeconds:  int(scoring.PriorHalfLife / time.Second),
		ReentryDelaySeconds:   int(scoring.ReentryDelay / time.Second),
		EMAAlphaSession:       scoring.EMAAlphaSession,
		EMAAlphaDB:            scoring.EMAAlphaDB,
		SessionBlendAlpha:     scoring.SessionBlendAlpha,
		SkipWeight:            scoring.SkipWeight,
		PriorMinCount:         scoring.PriorMinCount,
		PriorMaxCount:         scoring.PriorMaxCount,
		PriorCreatorWeight:    scoring.PriorCreatorWeight,
		PriorMinDecayed:       scoring.PriorMinDecayed,
		TopCategoryMax:        scoring.TopCategoryMax,
		RisingCategoryMax:     scoring.RisingCategoryMax,
		TopSubMax:             scoring.TopSubMax,
		RisingSubMax:          scoring.RisingSubMax,
		SpecificMax:           scoring.SpecificMax,
		TopCreatorMax:         scoring.TopCreatorMax,
		RisingCreatorMax:      scoring.RisingCreatorMax,
		HardSkipThreshold:     scoring.HardSkipThreshold,
		WatchedThreshold:      scoring.WatchedThreshold,
		TrendingWeight:        scoring.TrendingWeight,
		TrendingExponent:      scoring.TrendingExponent,
		TrendingActivityNorm:  scoring.TrendingActivityNormalizer,
		TrendingBurstFactor:   scoring.TrendingBurstFactor,
		RisingRateMultiplier:  scoring.RisingRateMultiplier,
		MinInitialRisingScore: scoring.MinInitialRisingWeight,
		MinRawForEvergreen:    scoring.MinRawForEvergreen,
		EvergreenVelocityCap:  scoring.EvergreenVelocityRatio,
		DecayFactor:           scoring.DecayFactor,
		PersonalWeight:        scoring.PersonalWeight,
		InterestWeight:        scoring.InterestWeight,
		CreatorWeight:         scoring.CreatorWeight,
		RawWeight:             scoring.RawWeight,
		TrendWeight:           scoring.TrendWeight,
		BayesianWeight:        scoring.BayesianWeight,
		FeedSize:              scoring.FeedSize,
		NonExplore:            scoring.NonExplore,
	}
}

// stringField/floatField/intField read one FEED_-prefixed key out of
// src, falling back to the struct's current default on a missing key
// or a parse failure — a config source failing open, never closed, so
// a bad env var degrades to "use the default" rather than crashing a
// background worker's scheduled tick.
func stringField(src config.Config, key string, cur string, l *log.Helper) string {
	v, err := src.Value(key).String()
	if err != nil || v == "" {
		return cur
	}
	return v
}

func floatField(src config.Config, key string, cur float64, l *log.Helper) float64 {
	v, err := src.Value(key).Float()
	if err != nil {
		return cur
	}
	return v
}

func intField(src config.Config, key string, cur int, l *log.Helper) int {
	v, err := src.Value(key).Int()
	if err != nil {
		return cur
	}
	return int(v)
}

// Load reads FEED_-prefixed environment variables over Default()'s
// values via go-kratos/kratos/v2/config's env source (spec SPEC_FULL
// §6 "(NEW) Configuration"). Every lookup degrades silently to the
// spec-mandated default, matching §7's "background jobs never
// propagate" posture extended to startup configuration.
func Load(logger log.Logger) (Config, error) {
	cfg := Default()
	l := log.NewHelper(logger)

	src := config.New(config.WithSource(env.NewSource("FEED_")))
	if err := src.Load(); err != nil {
		l.Warnw("msg", "config: env source load failed, using defaults", "error", err)
		return cfg, nil
	}
	defer src.Close()

	cfg.HTTPAddr = stringField(src, "http_addr", cfg.HTTPAddr, l)
	cfg.PostgresDSN = stringField(src, "postgres_dsn", cfg.PostgresDSN, l)
	cfg.RedisAddr = stringField(src, "redis_addr", cfg.RedisAddr, l)
	cfg.NatsURL = stringField(src, "nats_url", cfg.NatsURL, l)

	cfg.SessionTTLSeconds = intField(src, "session_ttl_seconds", cfg.SessionTTLSeconds, l)
	cfg.ExpiryTickSeconds = intField(src, "expiry_tick_seconds", cfg.ExpiryTickSeconds, l)
	cfg.HalfLifeDays = floatField(src, "half_life_days", cfg.HalfLifeDays, l)
	cfg.ShortHalfLifeSeconds = intField(src, "short_half_life_seconds", cfg.ShortHalfLifeSeconds, l)
	cfg.LongHalfLifeSeconds = intField(src, "long_half_life_seconds", cfg.LongHalfLifeSeconds, l)
	cfg.RisingWindowSeconds = intField(src, "rising_window_seconds", cfg.RisingWindowSeconds, l)
	cfg.RecentWindowSeconds = intField(src, "recent_window_seconds", cfg.RecentWindowSeconds, l)
	cfg.PriorHalfLifeSeconds = intField(src, "prior_half_life_seconds", cfg.PriorHalfLifeSeconds, l)
	cfg.ReentryDelaySeconds = intField(src, "reentry_delay_seconds", cfg.ReentryDelaySeconds, l)
	cfg.EMAAlphaSession = floatField(src, "ema_alpha_session", cfg.EMAAlphaSession, l)
	cfg.EMAAlphaDB = floatField(src, "ema_alpha_db", cfg.EMAAlphaDB, l)
	cfg.SessionBlendAlpha = floatField(src, "session_blend_alpha", cfg.SessionBlendAlpha, l)
	cfg.SkipWeight = floatField(src, "skip_weight", cfg.SkipWeight, l)
	cfg.PriorMinCount = intField(src, "prior_min_count", cfg.PriorMinCount, l)
	cfg.PriorMaxCount = intField(src, "prior_max_count", cfg.PriorMaxCount, l)
	cfg.PriorCreatorWeight = floatField(src, "prior_creator_weight", cfg.PriorCreatorWeight, l)
	cfg.PriorMinDecayed = floatField(src, "prior_min_decayed", cfg.PriorMinDecayed, l)
	cfg.TopCategoryMax = intField(src, "top_category_max", cfg.TopCategoryMax, l)
	cfg.RisingCategoryMax = intField(src, "rising_category_max", cfg.RisingCategoryMax, l)
	cfg.TopSubMax = intField(src, "top_sub_max", cfg.TopSubMax, l)
	cfg.RisingSubMax = intField(src, "rising_sub_max", cfg.RisingSubMax, l)
	cfg.SpecificMax = intField(src, "specific_max", cfg.SpecificMax, l)
	cfg.TopCreatorMax = intField(src, "top_creator_max", cfg.TopCreatorMax, l)
	cfg.RisingCreatorMax = intField(src, "rising_creator_max", cfg.RisingCreatorMax, l)
	cfg.HardSkipThreshold = intField(src, "hard_skip_threshold", cfg.HardSkipThreshold, l)
	cfg.WatchedThreshold = intField(src, "watched_threshold", cfg.WatchedThreshold, l)
	cfg.TrendingWeight = floatField(src, "trending_weight", cfg.TrendingWeight, l)
	cfg.TrendingExponent = floatField(src, "trending_exponent", cfg.TrendingExponent, l)
	cfg.TrendingActivityNorm = floatField(src, "trending_activity_normalizer", cfg.TrendingActivityNorm, l)
	cfg.TrendingBurstFactor = floatField(src, "trending_burst_factor", cfg.TrendingBurstFactor, l)
	cfg.RisingRateMultiplier = floatField(src, "rising_rate_multiplier", cfg.RisingRateMultiplier, l)
	cfg.MinInitialRisingScore = floatField(src, "min_initial_rising_weight", cfg.MinInitialRisingScore, l)
	cfg.MinRawForEvergreen = floatField(src, "min_raw_for_evergreen", cfg.MinRawForEvergreen, l)
	cfg.EvergreenVelocityCap = floatField(src, "evergreen_velocity_ratio", cfg.EvergreenVelocityCap, l)
	cfg.DecayFactor = floatField(src, "decay_factor", cfg.DecayFactor, l)
	cfg.PersonalWeight = floatField(src, "personal_weight", cfg.PersonalWeight, l)
	cfg.InterestWeight = floatField(src, "interest_weight", cfg.InterestWeight, l)
	cfg.CreatorWeight = floatField(src, "creator_weight", cfg.CreatorWeight, l)
	cfg.RawWeight = floatField(src, "raw_weight", cfg.RawWeight, l)
	cfg.TrendWeight = floatField(src, "trend_weight", cfg.TrendWeight, l)
	cfg.BayesianWeight = floatField(src, "bayesian_weight", cfg.BayesianWeight, l)
	cfg.FeedSize = intField(src, "feed_size", cfg.FeedSize, l)
	cfg.NonExplore = intField(src, "non_explore", cfg.NonExplore, l)

	return cfg, nil
}

// Apply pushes the loaded tunables into internal/scoring's package
// vars, the single source every service/job/feed package reads from
// (spec §6.6). Must run once at process startup, before any request
// or scheduled tick touches the scoring package.
func (c Config) Apply() {
	scoring.SessionTTL = time.Duration(c.SessionTTLSeconds) * time.Second
	scoring.ExpiryWorkerTick = time.Duration(c.ExpiryTickSeconds) * time.Second
	scoring.HalfLifeDays = c.HalfLifeDays
	scoring.ShortHalfLife = time.Duration(c.ShortHalfLifeSeconds) * time.Second
	scoring.LongHalfLife = time.Duration(c.LongHalfLifeSeconds) * time.Second
	scoring.RisingWindow = time.Duration(c.RisingWindowSeconds) * time.Second
	scoring.RecentWindow = time.Duration(c.RecentWindowSeconds) * time.Second
	scoring.PriorHalfLife = time.Duration(c.PriorHalfLifeSeconds) * time.Second
	scoring.ReentryDelay = time.Duration(c.ReentryDelaySeconds) * time.Second
	scoring.EMAAlphaSession = c.EMAAlphaSession
	scoring.EMAAlphaDB = c.EMAAlphaDB
	scoring.SessionBlendAlpha = c.SessionBlendAlpha
	scoring.SkipWeight = c.SkipWeight
	scoring.PriorMinCount = c.PriorMinCount
	scoring.PriorMaxCount = c.PriorMaxCount
	scoring.PriorCreatorWeight = c.PriorCreatorWeight
	scoring.PriorMinDecayed = c.PriorMinDecayed
	scoring.TopCategoryMax = c.TopCategoryMax
	scoring.RisingCategoryMax = c.RisingCategoryMax
	scoring.TopSubMax = c.TopSubMax
	scoring.RisingSubMax = c.RisingSubMax
	scoring.SpecificMax = c.SpecificMax
	scoring.TopCreatorMax = c.TopCreatorMax
	scoring.RisingCreatorMax = c.RisingCreatorMax
	scoring.HardSkipThreshold = c.HardSkipThreshold
	scoring.WatchedThreshold = c.WatchedThreshold
	scoring.TrendingWeight = c.TrendingWeight
	scoring.TrendingExponent = c.TrendingExponent
	scoring.TrendingActivityNormalizer = c.TrendingActivityNorm
	scoring.TrendingBurstFactor = c.TrendingBurstFactor
	scoring.RisingRateMultiplier = c.RisingRateMultiplier
	scoring.MinInitialRisingWeight = c.MinInitialRisingScore
	scoring.MinRawForEvergreen = c.MinRawForEvergreen
	scoring.EvergreenVelocityRatio = c.EvergreenVelocityCap
	scoring.DecayFactor = c.DecayFactor
	scoring.PersonalWeight = c.PersonalWeight
	scoring.InterestWeight = c.InterestWeight
	scoring.CreatorWeight = c.CreatorWeight
	scoring.RawWeight = c.RawWeight
	scoring.TrendWeight = c.TrendWeight
	scoring.BayesianWeight = c.BayesianWeight
	scoring.FeedSize = c.FeedSize
	scoring.NonExplore = c.NonExplore
}
