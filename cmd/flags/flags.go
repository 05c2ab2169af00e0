// Package flags holds the CLI flags and logger/server wiring shared by the
// service binaries.
package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/ruteri/storage-provisioning-backend/common"
	"github.com/ruteri/storage-provisioning-backend/httpserver"
)

// SetupLogger builds the process logger from the common logging flags.
func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJSONFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUIDFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// ConfigureServer builds the HTTP server configuration from the common
// server flags.
func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *httpserver.HTTPServerConfig {
	return &httpserver.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		APIKey:                   cCtx.String(APIKeyFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var BasePathFlag = &cli.StringFlag{
	Name:    "base-path",
	EnvVars: []string{"STORAGE_BASE_PATH"},
	Usage:   "storage root: a directory for the posix backend, a dataset name for the zfs backend",
}

var UIDFlag = &cli.IntFlag{
	Name:    "uid",
	Value:   1000,
	EnvVars: []string{"STORAGE_UID"},
	Usage:   "user id owning newly created storage",
}

var GIDFlag = &cli.IntFlag{
	Name:    "gid",
	Value:   1000,
	EnvVars: []string{"STORAGE_GID"},
	Usage:   "group id owning newly created storage",
}

var BackendFlag = &cli.StringFlag{
	Name:    "backend",
	Value:   "posix",
	EnvVars: []string{"STORAGE_BACKEND"},
	Usage:   "storage backend to use: 'posix' or 'zfs'",
}

var APIKeyFlag = &cli.StringFlag{
	Name:    "api-key",
	EnvVars: []string{"API_KEY"},
	Usage:   "shared API key required in the X-API-Key header, minimum 16 characters",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var LogJSONFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}

var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}

var LogUIDFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: "storage-provisioning-backend",
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}

var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}

// CommonFlags are shared by every service binary.
var CommonFlags = []cli.Flag{
	ListenAddrFlag,
	MetricsAddrFlag,
	LogJSONFlag,
	LogDebugFlag,
	LogUIDFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
}
