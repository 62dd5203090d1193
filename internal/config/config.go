// Package config assembles the process configuration from the environment.
package config

import (
	"strings"
	"time"

	"github.com/zabal/bonfires/internal/util"
	"github.com/zabal/bonfires/pkg/api"

	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	APIURL         string
	APIKey         string
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	MaxRetries     int

	Port         string
	AuthURL      string
	MasterAPIKey string

	Debug bool
}

// Load reads the configuration. Call util.LoadEnv first to honor a .env file.
func Load() Config {
	cfg := Config{
		APIURL:         strings.TrimRight(util.GetEnvString("BONFIRES_API_URL", "http://localhost:8000"), "/"),
		APIKey:         util.GetEnv("BONFIRES_API_KEY"),
		CacheTTL:       util.GetEnvDuration("BONFIRES_CACHE_TTL", 5*time.Minute),
		RequestTimeout: util.GetEnvDuration("BONFIRES_REQUEST_TIMEOUT", 60*time.Second),
		MaxRetries:     int(util.GetEnvNumeric("BONFIRES_MAX_RETRIES", 3)),
		Port:           util.GetEnvString("PORT", "8080"),
		AuthURL:        strings.TrimRight(util.GetEnv("AUTH_URL"), "/"),
		MasterAPIKey:   util.GetEnv("MASTER_API_KEY"),
		Debug:          util.GetEnvBool("DEBUG", false),
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return cfg
}

// AuthEnabled reports whether mutating proxy routes require credentials.
func (c Config) AuthEnabled() bool {
	return c.AuthURL != "" || c.MasterAPIKey != ""
}

func (c Config) RetryPolicy() api.RetryPolicy {
	p := api.DefaultRetryPolicy()
	p.MaxRetries = c.MaxRetries
	return p
}

// NewAPIClient builds the shared client. reg may be nil.
func (c Config) NewAPIClient(reg prometheus.Registerer) *api.Client {
	policy := c.RetryPolicy()
	return api.NewClient(api.NewClientParams{
		BaseURL:     c.APIURL,
		APIKey:      c.APIKey,
		CacheTTL:    c.CacheTTL,
		Timeout:     c.RequestTimeout,
		RetryPolicy: &policy,
		Registerer:  reg,
	})
}
