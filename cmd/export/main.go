// Command export runs an aggregation session to completion, or for a fixed
// number of rounds, and writes the resulting leaderboard as CSV.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source/provider"
	service "github.com/folajindayo/builder-score-app-sub000/internal/app"
	"github.com/folajindayo/builder-score-app-sub000/internal/config"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/dedupe"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/types"
	"github.com/folajindayo/builder-score-app-sub000/pkg/logger"
)

// maxRounds stops a run whose source never reports exhaustion.
const maxRounds = 1000

type exportOptions struct {
	sponsors   []string
	timeWindow string
	query      string
	rounds     int
	out        string
	fixture    bool
	quiet      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:          "export",
		Short:        "Aggregate sponsor leaderboards and write them as CSV",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			if err := logger.InitWith(cfg.LogFormat, cmd.ErrOrStderr()); err != nil {
				return err
			}
			_ = logger.SetLevelString(cfg.LogLevel)
			if opts.fixture {
				cfg.FixtureMode = true
			}
			if len(opts.sponsors) == 0 {
				opts.sponsors = cfg.Sponsors
			}

			out := cmd.OutOrStdout()
			if opts.out != "" && opts.out != "-" {
				f, err := os.Create(opts.out)
				if err != nil {
					return fmt.Errorf("create %s: %w", opts.out, err)
				}
				defer f.Close()
				out = f
			}
			return run(cmd.Context(), cfg, opts, out, cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&opts.sponsors, "sponsors", "s", nil, `Sponsor slugs to aggregate (default from config)`)
	flags.StringVarP(&opts.timeWindow, "time-window", "w", "", `Upstream time window, e.g. "7d" or "30d"`)
	flags.StringVarP(&opts.query, "query", "q", "", `Only export builders matching this text`)
	flags.IntVarP(&opts.rounds, "rounds", "r", 0, `Number of rounds to load; 0 loads until every sponsor is exhausted`)
	flags.StringVarP(&opts.out, "out", "o", "-", `Output file; "-" writes to stdout`)
	flags.BoolVar(&opts.fixture, "fixture", false, `Use built-in fixture data instead of the upstream APIs`)
	flags.BoolVar(&opts.quiet, "quiet", false, `Hide the progress bar`)
	return cmd
}

// run loads rounds for one session and writes the export to out.
func run(ctx context.Context, cfg *config.Config, opts *exportOptions, out, progress io.Writer) error {
	log := logger.Get().Named("export")

	svc := service.New(
		service.WithLogger(log),
		service.WithSource(provider.New(cfg, log)),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithPageSize(cfg.PageSize),
		service.WithDisplayStep(cfg.DisplayStep),
		service.WithCategoryMode(cfg.Mode()),
		service.WithResolver(dedupe.NewResolver(dedupe.WithNameMerging(cfg.MergeByName))),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	h, err := svc.StartSession(ctx, service.StartOptions{Sponsors: opts.sponsors, TimeWindow: opts.timeWindow})
	if err != nil {
		return err
	}
	defer func() { _ = svc.EndSession(context.WithoutCancel(ctx), h.ID) }()

	limit := opts.rounds
	if limit <= 0 {
		limit = maxRounds
	}
	bar := newProgressBar(opts, progress)

	var failed []string
	for i := 0; i < limit; i++ {
		res, err := svc.LoadNextRound(ctx, h.ID, service.RoundOptions{})
		if err != nil {
			return fmt.Errorf("round %d: %w", i+1, err)
		}
		failed = res.FailedSponsors
		_ = bar.Add(1)
		bar.Describe(fmt.Sprintf("%d builders", res.TotalUniqueBuilders))
		if !res.HasMore {
			break
		}
	}
	_ = bar.Finish()

	entries, err := svc.Export(ctx, h.ID, opts.query)
	if err != nil {
		return err
	}
	log.Info(ctx, "export complete",
		logger.Int("builders", len(entries)),
		logger.Strings("sponsors", opts.sponsors),
		logger.Strings("failed_sponsors", failed),
	)
	return types.WriteCSV(out, entries)
}

func newProgressBar(opts *exportOptions, w io.Writer) *progressbar.ProgressBar {
	if opts.quiet {
		w = io.Discard
	}
	total := opts.rounds
	if total <= 0 {
		total = -1
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("loading rounds"),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}
