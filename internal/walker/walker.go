// Package walker discovers candidate source files in a workspace and feeds
// them to the ingestion pipeline.
//
// The walker is the path-discovery side of the producer/consumer pipeline:
// it traverses the workspace recursively, honors .gitignore rules, skips
// hidden and well-known dependency directories, filters by extension and
// sends surviving paths on a channel that it closes when discovery is
// complete. Closing that channel is the pipeline's termination signal.
package walker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/codeintake/codeintake/internal/logging"
)

// DefaultExtensions is the source-file allowlist used when none is
// configured.
var DefaultExtensions = []string{
	".go", ".rs", ".py", ".js", ".ts", ".tsx", ".jsx",
	".java", ".c", ".h", ".cpp", ".hpp", ".cs", ".rb", ".php",
}

// defaultSkipDirs are directory names never descended into, independent of
// .gitignore contents.
var defaultSkipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"__pycache__":  true,
}

// Options configures a workspace walk.
type Options struct {
	// Root is the workspace root to traverse.
	Root string
	// Extensions is the file extension allowlist; empty means
	// DefaultExtensions.
	Extensions []string
	// IncludeHidden includes dot-files and dot-directories.
	IncludeHidden bool
	// NoIgnore skips .gitignore processing.
	NoIgnore bool
	// QueueSize bounds the output channel (0 means a sensible default),
	// applying backpressure from the read stage back onto discovery.
	QueueSize int
}

// Walker discovers files under a workspace root.
type Walker struct {
	opts   Options
	exts   map[string]bool
	logger logging.Logger
}

// New creates a walker for the given options.
func New(opts Options, logger logging.Logger) *Walker {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extSet := make(map[string]bool, len(exts))
	for _, ext := range exts {
		extSet[strings.ToLower(ext)] = true
	}

	return &Walker{
		opts:   opts,
		exts:   extSet,
		logger: logger.WithComponent("walker"),
	}
}

// Walk traverses the workspace and returns a channel of discovered paths.
// The channel is closed when discovery completes or ctx is cancelled.
// Unreadable directories are logged and skipped, never fatal.
func (w *Walker) Walk(ctx context.Context) <-chan string {
	queueSize := w.opts.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	paths := make(chan string, queueSize)

	go func() {
		defer close(paths)

		stack := newIgnoreStack()
		if !w.opts.NoIgnore {
			stack.push(w.opts.Root)
		}

		err := filepath.WalkDir(w.opts.Root, func(path string, entry fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				w.logger.Debug(ctx, "skipping unreadable entry", "path", path, "error", err.Error())
				if entry != nil && entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if entry.IsDir() {
				if path == w.opts.Root {
					return nil
				}
				if w.skipDir(entry.Name()) {
					return filepath.SkipDir
				}
				if !w.opts.NoIgnore {
					if stack.isIgnored(path, true) {
						return filepath.SkipDir
					}
					stack.push(path)
				}
				return nil
			}

			if !w.wantFile(path, entry.Name()) {
				return nil
			}
			if !w.opts.NoIgnore && stack.isIgnored(path, false) {
				return nil
			}

			select {
			case paths <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if err != nil && err != ctx.Err() {
			w.logger.Warn(ctx, err, "workspace walk aborted", "root", w.opts.Root)
		}
	}()

	return paths
}

func (w *Walker) skipDir(name string) bool {
	if defaultSkipDirs[name] {
		return true
	}
	if !w.opts.IncludeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	return false
}

func (w *Walker) wantFile(path, name string) bool {
	if !w.opts.IncludeHidden && strings.HasPrefix(name, ".") {
		return false
	}
	return w.exts[strings.ToLower(filepath.Ext(name))]
}

// ignoreStack tracks .gitignore rules as the walk descends. Each layer
// corresponds to a directory whose .gitignore is in effect; parsers are
// immutable once compiled.
type ignoreStack struct {
	layers []ignoreLayer
}

type ignoreLayer struct {
	dir    string
	parser *ignore.GitIgnore
}

func newIgnoreStack() *ignoreStack {
	return &ignoreStack{}
}

// push loads a directory's .gitignore onto the stack. Missing or
// unparseable files yield a nil layer so stack depth still matches the
// walk depth.
func (s *ignoreStack) push(dir string) {
	parser, err := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		s.layers = append(s.layers, ignoreLayer{dir: dir})
		return
	}
	s.layers = append(s.layers, ignoreLayer{dir: dir, parser: parser})
}

// isIgnored checks a path against every active layer, matching on the path
// relative to the layer's directory.
func (s *ignoreStack) isIgnored(fullPath string, isDir bool) bool {
	for _, layer := range s.layers {
		if layer.parser == nil {
			continue
		}
		rel, err := filepath.Rel(layer.dir, fullPath)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		probe := rel
		if isDir {
			probe += string(os.PathSeparator)
		}
		if layer.parser.MatchesPath(probe) {
			return true
		}
	}
	return false
}
