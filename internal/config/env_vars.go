package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar        = "PORT"
	appNameVar        = "APP_NAME"
	envVar            = "ENV"
	logLevelVar       = "LOG_LEVEL"
	apiBaseURLVar     = "TENDER_API_URL"
	tokenFileVar      = "TENDER_TOKEN_FILE"
	httpTimeoutSecVar = "TENDER_HTTP_TIMEOUT_SECONDS"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Tender Intel")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envVar, "DEV")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetAPIBaseURL returns the origin the REST client talks to. Endpoint paths
// already carry the "/api/" prefix.
func (EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiBaseURLVar, "http://localhost:8080"), "/")
}

// GetTokenFile returns where the credential pair is persisted (~/.tender/credentials.json)
func (EnvVars) GetTokenFile() string {
	if f := os.Getenv(tokenFileVar); f != "" {
		return f
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tender", "credentials.json")
	}
	return filepath.Join(home, ".tender", "credentials.json")
}

func (EnvVars) GetHTTPTimeout() time.Duration {
	secs, err := strconv.Atoi(GetEnv(httpTimeoutSecVar, "30"))
	if err != nil || secs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(secs) * time.Second
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
