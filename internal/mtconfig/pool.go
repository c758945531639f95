package mtconfig

import (
	"time"

	"github.com/dantte-lp/gomtproto/internal/pool"
	"github.com/dantte-lp/gomtproto/internal/sender"
)

// PoolOptions builds a pool.Options from the loaded configuration,
// translating the flat, environment-friendly PoolConfig fields into the
// ReconnectPolicy and FloodPolicy shapes the pool and sender expect.
func (c *Config) PoolOptions() pool.Options {
	flood := sender.FloodPolicy{Threshold: c.Pool.FloodWaitThreshold}

	attempts := c.Pool.ReconnectMaxAttempts
	backoff := c.Pool.ReconnectMaxBackoff
	reconnect := func(attempt int) sender.ReconnectDecision {
		if attempt >= attempts {
			return sender.ReconnectDecision{Break: true}
		}
		sleep := backoff * time.Duration(attempt+1) / time.Duration(attempts)
		if sleep <= 0 || sleep > backoff {
			sleep = backoff
		}
		return sender.ReconnectDecision{Sleep: sleep}
	}

	return pool.Options{
		APIID: c.Pool.APIID,
		ConnParams: pool.ConnParams{
			APIID:          c.Pool.APIID,
			DeviceModel:    c.Pool.DeviceModel,
			SystemVersion:  c.Pool.SystemVersion,
			AppVersion:     c.Pool.AppVersion,
			SystemLangCode: c.Pool.SystemLangCode,
			LangCode:       c.Pool.LangCode,
		},
		ProxyURL:         c.Pool.ProxyURL,
		UpdateQueueLimit: c.Pool.UpdateQueueLimit,
		ReconnectPolicy:  reconnect,
		FloodPolicy:      flood,
	}
}
