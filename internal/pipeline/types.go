// Package pipeline implements the concurrent file-ingestion stage that
// feeds downstream code-intelligence processing.
//
// An external path producer fills the input channel; ReadStage fans out
// across a fixed pool of workers, each validating, opening, reading and
// hashing one file at a time, and forwards results to an output channel
// consumed by an external parsing stage. Individual file failures are
// counted and logged, never fatal to the run.
package pipeline

import "time"

// FileContent is one successfully read, hashed file. Values are produced
// once and handed off to the output channel; the producer does not mutate
// them afterwards.
type FileContent struct {
	// Path is workspace-relative when the stage was configured with a
	// workspace root and the file lies under it, absolute otherwise.
	Path string
	// Content is the file's textual content.
	Content string
	// Digest is the deterministic content digest of Content.
	Digest string
}

// RunStats describes one Run invocation. Counts are exact for all paths
// that entered the input channel before it was closed.
type RunStats struct {
	// FilesRead is the number of files read and delivered downstream.
	FilesRead int
	// FilesFailed is the number of files that failed to read.
	FilesFailed int
	// InputWait is the cumulative time workers spent blocked receiving
	// input, summed across workers.
	InputWait time.Duration
	// OutputWait is the cumulative time workers spent blocked sending
	// output, summed across workers.
	OutputWait time.Duration
	// WallTime is the wall-clock duration of the run.
	WallTime time.Duration
}
