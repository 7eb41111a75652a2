package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"HedgeRatio/internal/notifier"
	"HedgeRatio/internal/scheduler"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompute the watchlist on a schedule and report to Telegram",
		Long: `Run the watchlist job on the configured cron schedule, sending each
pair's report to Telegram, and answer Telegram commands:

  /hedge SPOT FUT [days]
  /watch
  /history

Set RUN_ON_START=true to run the watchlist once at startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			if err := cfg.ValidateWatch(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			a, err := newApp(cfg, source, watchSymbols(cfg)...)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
			sched := scheduler.NewScheduler(ctx, a.service, tn, a.recorder, cfg.Watch.Pairs, cfg.Watch.LookbackDays)
			if err := sched.Register(cfg.Watch.Cron); err != nil {
				return fmt.Errorf("register cron task: %w", err)
			}
			sched.Start()
			defer sched.Stop()

			go tn.StartPolling(ctx, sched.HandleCommand)
			log.Info().Msg("telegram polling started")

			if os.Getenv("RUN_ON_START") == "true" {
				log.Info().Msg("RUN_ON_START enabled, running watchlist now")
				go sched.RunWatchNow()
			}

			log.Info().Int("pairs", len(cfg.Watch.Pairs)).Str("cron", cfg.Watch.Cron).Msg("watching. Press Ctrl+C to stop.")
			<-ctx.Done()
			log.Info().Msg("shutdown signal received, stopping...")
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", sourceAuto, "Data source: yahoo, vstrader or mock")
	return cmd
}
