package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codeintake/codeintake/internal/config"
	"github.com/codeintake/codeintake/internal/pipeline"
	"github.com/codeintake/codeintake/internal/security"
	"github.com/codeintake/codeintake/internal/walker"
	"github.com/codeintake/codeintake/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the workspace and re-ingest files as they change",
	Long: `Watch the workspace for source file changes and push each debounced
batch of changed files through the secure read pipeline.

The watcher runs until interrupted (Ctrl-C).

Examples:
  codeintake watch                         # Watch the current directory
  codeintake watch --root /srv/project     # Watch a specific workspace
  codeintake watch --debounce 500          # Widen the debounce window (ms)`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("root", "", "Workspace root to watch (default current directory)")
	watchCmd.Flags().Int("debounce", 0, "Debounce window in milliseconds (default 300)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	_ = viper.BindPFlag("workspace.root", cmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("watch.debounce_ms", cmd.Flags().Lookup("debounce"))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, err := cfg.AbsRoot()
	if err != nil {
		return err
	}

	boundary, err := security.NewWorkspaceBoundary(root)
	if err != nil {
		return err
	}
	boundary = boundary.WithInternalSymlinks(cfg.Workspace.AllowInternalSymlinks)

	debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
	detector, err := watch.NewDetector(debounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create change detector: %w", err)
	}

	extensions := cfg.Discovery.Extensions
	if len(extensions) == 0 {
		extensions = walker.DefaultExtensions
	}
	detector.AddFilter(watch.ExtensionFilter(extensions))
	if !cfg.Discovery.IncludeHidden {
		detector.AddFilter(watch.NoHiddenFilter)
	}

	if err := detector.AddRecursive(boundary.Root()); err != nil {
		return fmt.Errorf("failed to watch workspace: %w", err)
	}

	stage := pipeline.NewReadStageWithRoot(cfg.Pipeline.Workers, boundary.Root()).
		WithBoundaryEnforcement(cfg.Workspace.EnforceBoundary).
		WithLogger(logger)

	logger.Info(ctx, "watching workspace",
		"root", boundary.Root(),
		"debounce", debounce.String(),
	)

	detector.Start(ctx)

	for batch := range detector.Batches() {
		for _, path := range batch {
			content, err := stage.ReadSingle(path)
			if err != nil {
				// Deleted-then-recreated files race the debounce window;
				// the failure is already logged by the stage.
				continue
			}
			fmt.Printf("%s  %s\n", content.Digest, content.Path)
		}
	}

	logger.Info(ctx, "watch stopped")
	return nil
}
