package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/changelog-digest/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Posts the digest on a cron schedule until interrupted",
	Long: `Runs the same digest as the digest command on a cron schedule. Runs never
overlap: if one is still in progress when the next is due, the next is skipped.
A failed run is logged and the schedule continues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.logger.Sync() //nolint:errcheck

		spec, _ := cmd.Flags().GetString("cron")
		timezone, _ := cmd.Flags().GetString("timezone")
		s, err := scheduler.New(timezone, env.logger)
		if err != nil {
			return err
		}
		if err := s.Schedule(spec, func() { runOnce(ctx, env) }); err != nil {
			return err
		}

		s.Start()
		env.logger.Infow("digest scheduled",
			"repo", env.cfg.Repository,
			"cron", spec,
			"timezone", timezone,
			"next_run", s.Next(time.Now()))

		<-ctx.Done()
		env.logger.Infow("stopping scheduler")
		s.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	addRunFlags(scheduleCmd)
	scheduleCmd.Flags().String("cron", scheduler.DefaultSpec, "Cron expression for digest runs")
	scheduleCmd.Flags().String("timezone", "UTC", "IANA timezone the cron expression is evaluated in")
}
