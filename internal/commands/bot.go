package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"flynesis-planner/internal/bot"
	"flynesis-planner/internal/service"
)

// digestTimeout bounds one run of the daily digest job.
const digestTimeout = 2 * time.Minute

func addBot(topLevel *cobra.Command, g *globalOptions) {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot and the daily digest.",
		Example: `
TELEGRAM_TOKEN=... planner bot
planner bot --config ~/.flynesis/planner.yaml
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := open(g, true)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.cfg.RequireBot(); err != nil {
				return err
			}
			loc, err := rt.cfg.Location()
			if err != nil {
				return err
			}

			telegramBot, err := bot.New(bot.Deps{
				Store:   rt.store,
				Auth:    rt.auth,
				Backups: rt.backups,
				Config:  rt.cfg,
			})
			if err != nil {
				return fmt.Errorf("bot: %w", err)
			}
			defer telegramBot.Close()

			scheduler := service.NewSchedulerService(loc)
			id, err := scheduler.ScheduleDaily(rt.cfg.DigestTime, func() {
				jobCtx, cancel := context.WithTimeout(ctx, digestTimeout)
				defer cancel()
				if err := telegramBot.SendDailyDigests(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("[warn] digest: %v", err)
				}
			})
			if err != nil {
				return fmt.Errorf("schedule digest: %w", err)
			}
			scheduler.Start()
			defer scheduler.Stop()
			log.Printf("[info] next digest at %s", scheduler.Next(id).Format(time.RFC1123))

			log.Println("[info] planner bot started")
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("bot stopped: %w", err)
			}
			log.Println("[info] shutdown complete")
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
