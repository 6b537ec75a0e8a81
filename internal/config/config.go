package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
	SimulatorConfig
	DevServerConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetAPIBaseURL() string
	GetTokenFile() string
	GetHTTPTimeout() time.Duration
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Session
	Simulator
	DevServer
}

func New() Config {
	return mainConfig{}
}
