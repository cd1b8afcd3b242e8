// Package internal contains the core implementation packages for
// codeintake.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the codeintake CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - config: Configuration management with validation
//   - digest: Content-addressable hashing of file contents
//   - errors: Structured error types shared across the pipeline
//   - logging: Structured logging with component scoping
//   - pipeline: Concurrent read stage and ingestion orchestration
//   - security: Workspace boundary and symlink-safe file access
//   - walker: Source file discovery with gitignore support
//   - watch: File system monitoring with debouncing
//
// # Design Principles
//
// All internal packages follow these design principles:
//
//   - Security by default with path validation at every file access
//   - Concurrent safety with proper mutex usage and race protection
//   - Per-file fault isolation so one bad file never fails a run
//   - Testability with comprehensive unit and property test coverage
//   - Observability with structured logging of security events
package internal
