/*
Package log provides structured logging for the asset store using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level for production debugging.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Thread-safe concurrent writes

Log Levels:
  - Debug: detailed debugging information
  - Info: general informational messages (production default)
  - Warn: potential issues that may need attention
  - Error: failed operations
  - Fatal: critical errors (process exits)

Context Loggers:
  - WithComponent: add component name to all logs
  - WithAsset: add the asset path under operation
  - WithUser: add the acting user and group

# Usage

Initializing the logger:

	import "github.com/hoardlab/hoard/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Simple logging:

	log.Info("store loaded")
	log.Warn("asset cache cold")
	log.Error("backend write failed")

Structured logging:

	log.Logger.Info().
		Str("asset", "bin.ls").
		Int("id", 100000).
		Msg("asset stored")

Component loggers:

	gwLog := log.WithComponent("gateway")
	gwLog.Info().Msg("gateway listening")

	opLog := log.WithUser("bob", "devs")
	opLog.Debug().Str("asset", "home.bob.notes").Msg("update requested")

# Integration Points

This package integrates with:

  - pkg/store: logs asset updates, loads and persistence
  - pkg/gateway: logs queries with per-request ids
  - pkg/reload: logs script loads and cache invalidations
  - cmd/hoard: initializes the logger from configuration

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() so the cause survives aggregation

Don't:
  - Log secrets or asset payloads
  - Use Debug level in production
  - Concatenate user input into messages (use .Str, .Int)
*/
package log
