package config

import (
	"sort"
	"strings"
)

type Cors struct{}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	origins := make([]string, 0, len(a))
	for k := range a {
		origins = append(origins, k)
	}
	sort.Strings(origins)
	return strings.Join(origins, ", ")
}

var allowedOrigins = AllowedOrigins{"http://localhost:5173": nullValue{}, "http://localhost:3000": nullValue{}}

// GetAllowedOrigins lists the browser front-ends allowed to call the dev backend.
func (Cors) GetAllowedOrigins() AllowedOrigins {
	if extra := GetEnv("CORS_ORIGINS", ""); extra != "" {
		origins := AllowedOrigins{}
		for k := range allowedOrigins {
			origins[k] = nullValue{}
		}
		for _, o := range strings.Split(extra, ",") {
			origins[strings.TrimSpace(o)] = nullValue{}
		}
		return origins
	}
	return allowedOrigins
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST, OPTIONS"
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization, X-Request-ID"
}
