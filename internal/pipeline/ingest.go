package pipeline

import (
	"context"

	"github.com/codeintake/codeintake/internal/logging"
)

// DefaultQueueSize bounds the output channel between the read stage and
// its consumer, providing natural backpressure from downstream.
const DefaultQueueSize = 128

// Ingestor composes a path producer, a ReadStage and a result consumer
// into one run.
type Ingestor struct {
	stage     *ReadStage
	queueSize int
	logger    logging.Logger
}

// NewIngestor creates an ingestor around a configured read stage.
func NewIngestor(stage *ReadStage, queueSize int) *Ingestor {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Ingestor{
		stage:     stage,
		queueSize: queueSize,
		logger:    logging.NopLogger{},
	}
}

// WithLogger sets the ingestor logger.
func (ing *Ingestor) WithLogger(logger logging.Logger) *Ingestor {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	ing.logger = logger.WithComponent("ingest")
	return ing
}

// Run consumes paths until the channel is closed, invoking handle for
// every successfully read file, and returns the run statistics. handle is
// called from a single goroutine; ordering across files is unspecified.
func (ing *Ingestor) Run(ctx context.Context, paths <-chan string, handle func(FileContent)) (RunStats, error) {
	out := make(chan FileContent, ing.queueSize)

	var (
		stats  RunStats
		runErr error
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(out)
		stats, runErr = ing.stage.Run(ctx, paths, out)
	}()

	for content := range out {
		if handle != nil {
			handle(content)
		}
	}
	<-done

	if runErr != nil {
		return stats, runErr
	}

	ing.logger.Info(ctx, "ingestion run complete",
		"files_read", stats.FilesRead,
		"files_failed", stats.FilesFailed,
		"input_wait", stats.InputWait.String(),
		"output_wait", stats.OutputWait.String(),
		"wall_time", stats.WallTime.String(),
	)

	return stats, nil
}
