package cli

import (
	"fmt"
	"time"

	"resumelift/internal/config"
	"resumelift/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP session server",
	Long: `Start an HTTP server exposing the resume workflow as a session API.
Each session holds one resume, its job description, and the edit and
optimization state.

Available endpoints:
- POST /api/v1/sessions: Open a session
- POST /api/v1/sessions/{id}/resume: Upload and parse a resume
- POST /api/v1/sessions/{id}/analyze: Run an ATS analysis
- POST /api/v1/sessions/{id}/edit/...: Edit a section
- POST /api/v1/sessions/{id}/optimize/...: Optimize a section
- GET  /api/v1/sessions/{id}/export/{format}: Export the resume
- GET  /health: Health check endpoint
- GET  /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --cert-file and --key-file to serve TLS from PEM files`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
}

// applyServeOverrides copies explicitly set serve flags onto the loaded
// configuration. Setting both TLS files enables TLS even when the
// config file leaves it off.
func applyServeOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetString("port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("cert-file") {
		cfg.Server.TLS.CertFile, _ = cmd.Flags().GetString("cert-file")
	}
	if cmd.Flags().Changed("key-file") {
		cfg.Server.TLS.KeyFile, _ = cmd.Flags().GetString("key-file")
	}
	if cmd.Flags().Changed("cert-file") && cmd.Flags().Changed("key-file") {
		cfg.Server.TLS.Enabled = true
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	applyServeOverrides(cmd, cfg)

	if cfg.Server.TLS.Enabled && (cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "") {
		return fmt.Errorf("TLS is enabled but cert-file or key-file is missing")
	}

	// Config file changes are logged; server bind settings need a restart
	if cfg.ConfigFileUsed != "" {
		watcher := config.NewWatcher(cfg.ConfigFileUsed, time.Second, func() {
			reloaded, err := config.LoadConfig(cfg.ConfigFileUsed)
			if err != nil {
				logger.LogError(err, "Config file changed but reload failed, keeping current configuration")
				return
			}
			logger.Info("Config file reloaded",
				"log_level", reloaded.App.LogLevel,
				"note", "server bind and TLS settings take effect on restart")
		}, logger)
		if err := watcher.Start(); err != nil {
			logger.Warn("Config watcher could not be started", "error", err)
		} else {
			defer func() {
				if err := watcher.Stop(); err != nil {
					logger.Warn("Config watcher stop failed", "error", err)
				}
			}()
		}
	}

	return server.FromConfig(cfg, Version, logger).Start()
}
