package config

import "time"

type DevServerConfig interface {
	GetSigningSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetSeedUsername() string
	GetSeedPassword() string
}

type DevServer struct{}

var _ DevServerConfig = DevServer{}

func (DevServer) GetSigningSecret() string {
	return GetEnv("DEV_SIGNING_SECRET", "dev-only-secret")
}

func (DevServer) GetAccessTokenExpiry() time.Duration {
	return 5 * time.Minute
}

func (DevServer) GetRefreshTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour // 7 days
}

func (DevServer) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (DevServer) GetSeedUsername() string {
	return GetEnv("DEV_SEED_USERNAME", "demo")
}

func (DevServer) GetSeedPassword() string {
	return GetEnv("DEV_SEED_PASSWORD", "Demo12345")
}
