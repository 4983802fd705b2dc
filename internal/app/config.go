package app

import (
	"time"

	"github.com/menttor/menttor-backend/internal/platform/envutil"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	SchedulerTick time.Duration
	NudgeSweep    time.Duration
}

func LoadConfig() Config {
	return Config{
		Port:        envutil.String("PORT", "8080"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL:  envutil.Duration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: envutil.Duration("REFRESH_TOKEN_TTL", 24*time.Hour),

		SchedulerTick: envutil.Duration("SCHEDULER_TICK", 5*time.Second),
		NudgeSweep:    envutil.Duration("NUDGE_SWEEP_INTERVAL", time.Minute),
	}
}
