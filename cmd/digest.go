package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/naka-gawa/changelog-digest/internal/config"
	"github.com/naka-gawa/changelog-digest/internal/domain"
	"github.com/naka-gawa/changelog-digest/internal/gateway"
	"github.com/naka-gawa/changelog-digest/internal/usecase"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Builds the weekly digest once and posts it",
	Long: `Fetches the star count and closed pull requests of the configured repository,
selects the pull requests merged during the last seven days that carry the
"changelog" label, and posts the digest to the Slack webhook.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.logger.Sync() //nolint:errcheck

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		asJSON, _ := cmd.Flags().GetBool("json")
		run := env.digester.Run
		if dryRun {
			run = env.digester.Prepare
		}
		report, err := run(ctx, env.cfg.Owner(), env.cfg.RepoName())
		if err != nil {
			env.logger.Errorw("digest failed", "repo", env.cfg.Repository, "err", err)
			return err
		}
		if !asJSON {
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), report.Message)
			}
			return nil
		}
		jsonData, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal report to JSON")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
		return nil
	},
}

// runEnv bundles what a digest run needs.
type runEnv struct {
	cfg      *config.Config
	logger   *zap.SugaredLogger
	digester *usecase.Digester
}

// setup loads configuration and wires the gateways into a Digester.
func setup(cmd *cobra.Command) (*runEnv, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := newLogger(verbose)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logger")
	}

	configPath, _ := cmd.Flags().GetString("config")
	repo, _ := cmd.Flags().GetString("repo")
	project, _ := cmd.Flags().GetString("project")
	cfg, err := config.Load(configPath, config.WithRepository(repo), config.WithProjectName(project))
	if err != nil {
		logger.Errorw("invalid configuration", "err", err)
		return nil, err
	}

	githubGateway, err := gateway.NewGitHubGateway(gateway.GitHubOptions{
		Token:         cfg.GitHubToken,
		UserAgent:     cfg.UserAgent,
		Timeout:       cfg.HTTPTimeout,
		EnterpriseURL: cfg.GitHubAPIURL,
	}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GitHub gateway")
	}
	notifier := gateway.NewSlackNotifier(cfg.SlackHook, gateway.NewHTTPClient(cfg.HTTPTimeout, cfg.UserAgent), logger)
	digester := usecase.NewDigester(githubGateway, notifier, domain.Renderer{Project: cfg.ProjectName}, logger)

	return &runEnv{cfg: cfg, logger: logger, digester: digester}, nil
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("repo", "r", "", "Repository in owner/name form (overrides REPOSITORY)")
	cmd.Flags().StringP("project", "p", "", "Project name shown in the digest header (overrides PROJECT_NAME)")
}

func init() {
	rootCmd.AddCommand(digestCmd)
	addRunFlags(digestCmd)
	digestCmd.Flags().Bool("dry-run", false, "Print the digest instead of posting it")
	digestCmd.Flags().Bool("json", false, "Print the full report as JSON (after delivery unless --dry-run)")
}

// runOnce is shared by the schedule command.
func runOnce(ctx context.Context, env *runEnv) {
	if _, err := env.digester.Run(ctx, env.cfg.Owner(), env.cfg.RepoName()); err != nil {
		env.logger.Errorw("scheduled digest failed", "repo", env.cfg.Repository, "err", err)
	}
}
