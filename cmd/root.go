package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func Start() {
	cfg := newCfg("env")
	slog.SetLogLoggerLevel(slog.Level(cfg.GetInt("log.level")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := &cobra.Command{}
	cmd := []*cobra.Command{
		{
			Use:   "serve-http",
			Short: "Run HTTP server",
			Run: func(cmd *cobra.Command, args []string) {
				runHttpServerCmd(ctx)
			},
		},
		{
			Use:   "serve-queue:booking",
			Short: "Run queue booking server",
			Run: func(cmd *cobra.Command, args []string) {
				runQueueBookingCmd(ctx)
			},
		},
		{
			Use:   "serve-queue:email",
			Short: "Run queue email server",
			Run: func(cmd *cobra.Command, args []string) {
				runQueueEmailCmd(ctx)
			},
		},
		{
			Use:   "monitor",
			Short: "Run health monitor",
			Run: func(cmd *cobra.Command, args []string) {
				runMonitorCmd(ctx)
			},
		},
		{
			Use:   "simulate-gateway",
			Short: "Fire synthetic gateway callbacks, for testing purpose",
			Run: func(cmd *cobra.Command, args []string) {
				runSimulateGatewayCmd(ctx)
			},
		},
		{
			Use:   "dev",
			Short: "Run dev server, for testing purpose",
			Run: func(cmd *cobra.Command, args []string) {
				runHttpServerCmd(ctx)
			},
			PreRun: func(cmd *cobra.Command, args []string) {
				go func() {
					runQueueBookingCmd(ctx)
				}()
				go func() {
					runQueueEmailCmd(ctx)
				}()
				go func() {
					runMonitorCmd(ctx)
				}()
			},
		},
	}

	rootCmd.AddCommand(cmd...)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err)
	}
}
