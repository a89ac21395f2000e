package resilience

import "time"

type BreakerConfig struct {
	Enabled          bool          `validate:"-"`
	FailureThreshold int           `validate:"gte=0"`
	OpenTimeout      time.Duration `validate:"gte=0"`
	HalfOpenMaxReq   int           `validate:"gte=0"`
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxReq:   1,
	}
}

func (cfg BreakerConfig) normalized() BreakerConfig {
	defaults := DefaultBreakerConfig()
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if cfg.HalfOpenMaxReq < 1 {
		cfg.HalfOpenMaxReq = defaults.HalfOpenMaxReq
	}
	return cfg
}
