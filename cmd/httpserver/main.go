package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ruteri/storage-provisioning-backend/cmd/flags"
	"github.com/ruteri/storage-provisioning-backend/httpserver"
	"github.com/ruteri/storage-provisioning-backend/interfaces"
	"github.com/ruteri/storage-provisioning-backend/storage"
)

var cliFlags = append([]cli.Flag{
	flags.BasePathFlag,
	flags.UIDFlag,
	flags.GIDFlag,
	flags.BackendFlag,
	flags.APIKeyFlag,
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:  "storage-server",
		Usage: "Serve the tenant storage provisioning API",
		Flags: cliFlags,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			backend, err := interfaces.ParseBackendKind(cCtx.String(flags.BackendFlag.Name))
			if err != nil {
				logger.Error("Invalid backend selection", "err", err)
				return err
			}

			storageCfg := interfaces.BackendConfig{
				BasePath: cCtx.String(flags.BasePathFlag.Name),
				UID:      cCtx.Int(flags.UIDFlag.Name),
				GID:      cCtx.Int(flags.GIDFlag.Name),
				Backend:  backend,
			}

			if err := httpserver.ValidateAPIKey(cCtx.String(flags.APIKeyFlag.Name)); err != nil {
				logger.Error("Invalid API key configuration", "err", err)
				return err
			}

			store, err := storage.New(cCtx.Context, storageCfg, logger)
			if err != nil {
				logger.Error("Failed to create storage backend", "err", err)
				return err
			}
			logger.Info("Storage backend ready",
				"backend", storageCfg.Backend,
				"basePath", storageCfg.BasePath)

			cfg := flags.ConfigureServer(cCtx, logger)
			handler := httpserver.NewHandler(store, logger)

			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit

			// Shutdown server once termination signal is received
			server.Shutdown()
			return nil
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
