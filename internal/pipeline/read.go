package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codeintake/codeintake/internal/digest"
	interrors "github.com/codeintake/codeintake/internal/errors"
	"github.com/codeintake/codeintake/internal/logging"
	"github.com/codeintake/codeintake/internal/security"
)

// ReadStage is a worker-pool pipeline stage that reads and hashes files.
// The thread count is fixed after construction; the workspace root, if
// present, is shared read-only across workers.
type ReadStage struct {
	threads       int
	workspaceRoot string
	enforce       bool
	logger        logging.Logger
}

// NewReadStage creates a read stage with the given worker count, clamped
// up to at least 1.
func NewReadStage(threads int) *ReadStage {
	return &ReadStage{
		threads: max(threads, 1),
		logger:  logging.NopLogger{},
	}
}

// NewReadStageWithRoot creates a read stage whose output paths are
// rewritten relative to workspaceRoot. The root is used for path
// relativization only; boundary enforcement is opt-in via
// WithBoundaryEnforcement.
func NewReadStageWithRoot(threads int, workspaceRoot string) *ReadStage {
	stage := NewReadStage(threads)
	stage.workspaceRoot = workspaceRoot
	return stage
}

// WithBoundaryEnforcement makes every read validate its path against the
// configured workspace root before the file is opened.
func (s *ReadStage) WithBoundaryEnforcement(enforce bool) *ReadStage {
	s.enforce = enforce
	return s
}

// WithLogger sets the stage logger.
func (s *ReadStage) WithLogger(logger logging.Logger) *ReadStage {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	s.logger = logger.WithComponent("pipeline")
	return s
}

// Threads returns the fixed worker count.
func (s *ReadStage) Threads() int {
	return s.threads
}

// ReadSingle reads one file synchronously, for incremental and on-demand
// callers that do not want a worker pool.
func (s *ReadStage) ReadSingle(path string) (FileContent, error) {
	content, err := s.readFile(path)
	if err != nil {
		return FileContent{}, err
	}
	content.Path = relativize(content.Path, s.workspaceRoot)
	return content, nil
}

// Run pulls paths from in until it is closed, reading and hashing each
// file across the stage's worker pool and sending results to out.
//
// Input-channel closure is the pipeline's only termination signal; the
// consumer may cancel ctx to stop workers from sending once it is gone.
// Per-file failures are counted, logged and dropped; Run itself returns an
// error only for conditions that prevent the stage from operating at all.
// No ordering is guaranteed between files.
func (s *ReadStage) Run(ctx context.Context, in <-chan string, out chan<- FileContent) (RunStats, error) {
	start := time.Now()

	var (
		readCount    atomic.Int64
		failCount    atomic.Int64
		inputWaitNS  atomic.Int64
		outputWaitNS atomic.Int64
	)

	var wg sync.WaitGroup
	for i := 0; i < s.threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, in, out, &readCount, &failCount, &inputWaitNS, &outputWaitNS)
		}()
	}
	wg.Wait()

	return RunStats{
		FilesRead:   int(readCount.Load()),
		FilesFailed: int(failCount.Load()),
		InputWait:   time.Duration(inputWaitNS.Load()),
		OutputWait:  time.Duration(outputWaitNS.Load()),
		WallTime:    time.Since(start),
	}, nil
}

func (s *ReadStage) worker(
	ctx context.Context,
	in <-chan string,
	out chan<- FileContent,
	readCount, failCount, inputWaitNS, outputWaitNS *atomic.Int64,
) {
	for {
		recvStart := time.Now()
		var (
			path string
			ok   bool
		)
		select {
		case path, ok = <-in:
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}
		inputWaitNS.Add(time.Since(recvStart).Nanoseconds())

		content, err := s.readFileRecover(path)
		if err != nil {
			failCount.Add(1)
			continue
		}

		content.Path = relativize(content.Path, s.workspaceRoot)
		readCount.Add(1)

		sendStart := time.Now()
		select {
		case out <- content:
			outputWaitNS.Add(time.Since(sendStart).Nanoseconds())
		case <-ctx.Done():
			return
		}
	}
}

// readFileRecover converts a panic in the read path into a counted failure
// so one poisoned file cannot take a worker down.
func (s *ReadStage) readFileRecover(path string) (content FileContent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = interrors.NewInternalError(
				interrors.ErrCodeInternalError,
				fmt.Sprintf("panic while reading %s", path),
				nil,
			)
			s.logger.Error(context.Background(), err, "recovered panic in read worker",
				"path", path,
				"panic", fmt.Sprint(r),
			)
		}
	}()

	return s.readFile(path)
}

// readFile performs the secure read and digest for one path. The returned
// FileContent carries the absolute path; relativization is the caller's
// concern.
func (s *ReadStage) readFile(path string) (FileContent, error) {
	boundaryRoot := ""
	if s.enforce {
		boundaryRoot = s.workspaceRoot
	}

	text, err := security.SafeReadToString(path, boundaryRoot)
	if err != nil {
		s.logReadFailure(path, err)
		return FileContent{}, interrors.ErrFileRead(path, err)
	}

	return FileContent{
		Path:    path,
		Content: text,
		Digest:  digest.SumString(text),
	}, nil
}

// logReadFailure routes security failures to warn/error severity and plain
// I/O failures to debug.
func (s *ReadStage) logReadFailure(path string, err error) {
	ctx := context.Background()

	var sfe *security.SafeFileError
	if !errors.As(err, &sfe) {
		s.logger.Debug(ctx, "file read failed", "path", path, "error", err.Error())
		return
	}

	switch sfe.Kind {
	case security.SymlinkDetected:
		s.logger.Warn(ctx, err, "blocked symlink during ingestion", "path", path)
	case security.OutsideBoundary:
		s.logger.Warn(ctx, err, "blocked path escape attempt",
			"path", path,
			"boundary", sfe.Boundary,
		)
	case security.PathMismatch:
		// SafeOpen audit-logs mismatches rather than returning them; a
		// surfaced one still gets error severity here.
		s.logger.Error(ctx, err, "path mismatch detected",
			"expected", sfe.Expected,
			"actual", sfe.Actual,
		)
	default:
		s.logger.Debug(ctx, "file read failed", "path", path, "error", err.Error())
	}
}

// relativize rewrites path relative to root, leaving it unchanged when
// root is empty or path does not lie under it.
func relativize(path, root string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
