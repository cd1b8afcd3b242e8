package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codeintake/codeintake/internal/config"
	"github.com/codeintake/codeintake/internal/pipeline"
	"github.com/codeintake/codeintake/internal/security"
	"github.com/codeintake/codeintake/internal/walker"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Discover and ingest all source files in the workspace",
	Long: `Discover source files under the workspace root, read them through the
secure pipeline, and print each file's content digest.

Examples:
  codeintake ingest                          # Ingest the current directory
  codeintake ingest --root /srv/project      # Ingest a specific workspace
  codeintake ingest --workers 16 --quiet     # Tune concurrency, stats only`,
	RunE: runIngest,
}

var ingestQuiet bool

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().String("root", "", "Workspace root to ingest (default current directory)")
	ingestCmd.Flags().Int("workers", 0, "Read stage worker count (default NumCPU)")
	ingestCmd.Flags().Bool("enforce-boundary", false, "Validate every read against the workspace boundary")
	ingestCmd.Flags().BoolVarP(&ingestQuiet, "quiet", "q", false, "Only print run statistics")
}

func runIngest(cmd *cobra.Command, args []string) error {
	// Bound here rather than in init so sibling commands sharing viper
	// keys do not shadow each other's flags.
	_ = viper.BindPFlag("workspace.root", cmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("pipeline.workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("workspace.enforce_boundary", cmd.Flags().Lookup("enforce-boundary"))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	root, err := cfg.AbsRoot()
	if err != nil {
		return err
	}

	// Fail fast on an unusable root; this is the one fatal setup error.
	boundary, err := security.NewWorkspaceBoundary(root)
	if err != nil {
		return err
	}
	boundary = boundary.WithInternalSymlinks(cfg.Workspace.AllowInternalSymlinks)

	logger.Info(ctx, "starting ingestion",
		"root", boundary.Root(),
		"workers", cfg.Pipeline.Workers,
	)

	w := walker.New(walker.Options{
		Root:          boundary.Root(),
		Extensions:    cfg.Discovery.Extensions,
		IncludeHidden: cfg.Discovery.IncludeHidden,
		NoIgnore:      cfg.Discovery.NoIgnore,
		QueueSize:     cfg.Pipeline.QueueSize,
	}, logger)

	stage := pipeline.NewReadStageWithRoot(cfg.Pipeline.Workers, boundary.Root()).
		WithBoundaryEnforcement(cfg.Workspace.EnforceBoundary).
		WithLogger(logger)

	ingestor := pipeline.NewIngestor(stage, cfg.Pipeline.QueueSize).WithLogger(logger)

	stats, err := ingestor.Run(ctx, w.Walk(ctx), func(fc pipeline.FileContent) {
		if !ingestQuiet {
			fmt.Printf("%s  %s\n", fc.Digest, fc.Path)
		}
	})
	if err != nil {
		return err
	}

	fmt.Printf("ingested %d file(s), %d failed in %s\n",
		stats.FilesRead, stats.FilesFailed, stats.WallTime.Round(time.Millisecond))

	return nil
}
