package server

import (
	"encoding/json"
	"time"

	"resumelift/internal/config"
	"resumelift/internal/errors"
	"resumelift/internal/gateway"
	"resumelift/internal/session"
)

// Request and response bodies for the session API.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type JobDescriptionRequest struct {
	JobDescription string `json:"job_description"`
}

type EditOpenRequest struct {
	Section string `json:"section"`
}

type EditOpenResponse struct {
	Section string `json:"section"`
	Seed    any    `json:"seed"`
}

type EditSaveRequest struct {
	Draft json.RawMessage `json:"draft"`
}

type OptimizeOpenRequest struct {
	Section string `json:"section"`
	Item    *int   `json:"item,omitempty"`
}

type OptimizeRunRequest struct {
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

type OptimizeStatusResponse struct {
	State    string           `json:"state"`
	Section  string           `json:"section,omitempty"`
	Target   string           `json:"target,omitempty"`
	Progress session.Progress `json:"progress"`
	Result   *session.Result  `json:"result,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Server holds configuration for the HTTP session server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS configuration (cert/key files)
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys []string

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Shared gateway client and the session registry over it.
	// Populated by Start; tests inject them directly.
	Gateway  gateway.Client
	Sessions *SessionRegistry

	// Logger
	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *errors.Logger) *Server {
	// Drop empty keys so a blank config entry cannot authenticate
	apiKeys := make([]string, 0, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeys = append(apiKeys, key)
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeys,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}
}

// FromConfig builds a Server straight from the application config.
func FromConfig(appCfg *config.Config, version string, logger *errors.Logger) *Server {
	return NewServer(appCfg, ServerConfig{
		Host:           appCfg.Server.Host,
		Port:           appCfg.Server.Port,
		Version:        version,
		TLSConfig:      appCfg.Server.TLS,
		APIKeys:        appCfg.Server.APIKeys,
		ReadTimeout:    appCfg.Server.ReadTimeout,
		WriteTimeout:   appCfg.Server.WriteTimeout,
		IdleTimeout:    appCfg.Server.IdleTimeout,
		MaxRequestSize: appCfg.Server.MaxRequestBytes,
		RateLimit:      &appCfg.Server.RateLimit,
	}, logger)
}
