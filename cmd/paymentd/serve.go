package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zoobzio/clockz"

	"github.com/joseph-ayodele/payment-desk/internal/audit"
	"github.com/joseph-ayodele/payment-desk/internal/core"
	"github.com/joseph-ayodele/payment-desk/internal/ingest"
	"github.com/joseph-ayodele/payment-desk/internal/server"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll the requests directory and answer payment and receipt requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	sink, err := audit.NewFileSink(cfg.AuditLogPath(), clockz.RealClock)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer sink.Close()

	repo, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open receipt store: %w", err)
	}
	defer cleanup()

	dispatcher := core.NewDispatcher(cfg.Dirs.Responses, repo, logger, core.WithAudit(sink))

	var pollerOpts []ingest.Option
	if cfg.Health.Addr != "" {
		hs := server.NewHealthServer(logger)
		pollerOpts = append(pollerOpts, ingest.WithStatusReporter(hs))
		go func() {
			if err := hs.ListenAndServe(ctx, cfg.Health.Addr); err != nil {
				logger.Error("health server failed", "addr", cfg.Health.Addr, "error", err)
			}
		}()
	}
	poller := ingest.NewPoller(cfg.Dirs.Requests, cfg.Poll.Interval, dispatcher, logger, pollerOpts...)

	logger.Info("service starting",
		"requests", cfg.Dirs.Requests,
		"responses", cfg.Dirs.Responses,
		"store", cfg.Store.Driver,
		"interval", cfg.Poll.Interval)
	sink.Record(audit.Banner)
	fmt.Println(audit.Banner)

	err = poller.Run(ctx)

	sink.Record(audit.Stopped)
	fmt.Println(audit.Stopped)
	return err
}
