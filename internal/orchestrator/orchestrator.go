// Package orchestrator drives the unpack pipeline end to end: identifier
// resolution, decryption, container parsing, and concurrent extraction, over
// either a single archive or a directory tree of per-mini-program
// subdirectories.
package orchestrator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ryanuber/go-glob"
	"github.com/sirupsen/logrus"

	"github.com/kenneth/wxapkg-restorer/internal/container"
	"github.com/kenneth/wxapkg-restorer/internal/crypto"
	"github.com/kenneth/wxapkg-restorer/internal/debug"
	"github.com/kenneth/wxapkg-restorer/internal/metrics"
)

// ErrBadIdentifier is returned when no identifier can be supplied or
// inferred; per spec this aborts the whole run.
var ErrBadIdentifier = errors.New("orchestrator: bad identifier")

var identifierPattern = regexp.MustCompile(`wx[0-9a-f]{16}`)

// Options configures a Run or UnpackOne call.
type Options struct {
	// Identifier overrides path-based inference when non-empty.
	Identifier string
	// Workers bounds container.Extract concurrency; zero uses
	// container.DefaultWorkers.
	Workers int
	// Transforms is the extension-to-transform registry applied during
	// extraction. Nil disables all transforms.
	Transforms map[string]container.Transform
	// EnableTransforms toggles whether Transforms run at all.
	EnableTransforms bool
	Logger           *logrus.Logger
	Metrics          *metrics.Metrics
	// Progress is invoked once per completed entry across the whole run
	// (completed, total known at the time of the call).
	Progress func(completed, total int)
}

// ArchiveResult is the outcome of unpacking one archive.
type ArchiveResult struct {
	ArchivePath string
	OutputDir   string
	Extract     *container.ExtractResult
	Err         error
}

// Result aggregates every archive processed by a Run call.
type Result struct {
	Archives     []ArchiveResult
	FilesWritten int
	FilesFailed  int
}

// ResolveIdentifier extracts the first wx[0-9a-f]{16} substring from path.
func ResolveIdentifier(path string) (string, error) {
	if m := identifierPattern.FindString(path); m != "" {
		return m, nil
	}
	return "", fmt.Errorf("%w: no wx... identifier found in %q", ErrBadIdentifier, path)
}

// UnpackOne runs C1-C4 on a single archive file, writing its entries under
// outputDir. A decryption or parse failure returns an error wrapping
// crypto.ErrBadIdentifier, crypto.ErrBadArchive (archive too small to hold
// the encrypted header) or container.ErrBadArchive; the caller decides
// whether that aborts the whole run (identifier) or only this archive
// (parse/container failure).
func UnpackOne(archivePath, identifier, outputDir string, opts Options) (*container.ExtractResult, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	runID := uuid.NewString()

	if opts.Metrics != nil {
		opts.Metrics.SetHardwareAcceleration("aes-ni", crypto.HasAESHardwareSupport())
	}
	if debug.Enabled() {
		logger.WithFields(logrus.Fields(crypto.HardwareInfo())).Debug("hardware capability probe")
	}

	raw, err := os.ReadFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: read archive: %w", err)
	}

	plaintext, err := crypto.Decrypt(raw, identifier)
	if err != nil {
		outcome := "bad_archive"
		if errors.Is(err, crypto.ErrBadIdentifier) {
			outcome = "bad_identifier"
		}
		recordOutcome(opts.Metrics, outcome, start)
		return nil, err
	}

	entries, _, err := container.Parse(plaintext)
	if err != nil {
		recordOutcome(opts.Metrics, "bad_archive", start)
		return nil, err
	}
	if debug.Enabled() {
		logger.WithField("plaintext_bytes", len(plaintext)).Debug("container parsed")
	}

	result, err := container.Extract(plaintext, entries, outputDir, container.ExtractOptions{
		Workers:          opts.Workers,
		Transforms:       opts.Transforms,
		EnableTransforms: opts.EnableTransforms,
		Progress:         opts.Progress,
		Logger:           logger,
	})
	if err != nil {
		recordOutcome(opts.Metrics, "io_error", start)
		return nil, err
	}

	duration := time.Since(start)
	logger.WithFields(logrus.Fields{
		"run_id":       runID,
		"archive":      archivePath,
		"output":       outputDir,
		"entries":      len(entries),
		"files_failed": result.FilesFailed,
		"duration_ms":  duration.Milliseconds(),
	}).Info("archive unpacked")

	if opts.Metrics != nil {
		opts.Metrics.RecordArchive("ok", duration)
		opts.Metrics.RecordExtraction(result.FilesWritten, result.FilesFailed, sumSizes(plaintext, entries))
	}

	return result, nil
}

func recordOutcome(m *metrics.Metrics, outcome string, start time.Time) {
	if m != nil {
		m.RecordArchive(outcome, time.Since(start))
	}
}

func sumSizes(plaintext []byte, entries []container.Entry) int64 {
	var total int64
	for _, e := range entries {
		total += int64(e.Size)
	}
	return total
}

// Run operates in two modes, matching the filesystem shape of root: a
// single .wxapkg file runs C1-C4 once; a directory enumerates child
// directories and, for each that contains one or more .wxapkg files, runs
// C1-C4 per archive into outputDir/{subdir}/. The identifier is either
// opts.Identifier or inferred from each archive's path. A BadIdentifier
// failure aborts the whole run; a per-archive BadArchive failure aborts only
// that archive.
func Run(root, outputDir string, opts Options) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: stat root: %w", err)
	}

	if !info.IsDir() {
		return runSingle(root, outputDir, opts)
	}
	return runDirectory(root, outputDir, opts)
}

func runSingle(archivePath, outputDir string, opts Options) (*Result, error) {
	identifier := opts.Identifier
	if identifier == "" {
		id, err := ResolveIdentifier(archivePath)
		if err != nil {
			return nil, err
		}
		identifier = id
	}

	extractResult, err := UnpackOne(archivePath, identifier, outputDir, opts)
	ar := ArchiveResult{ArchivePath: archivePath, OutputDir: outputDir, Extract: extractResult, Err: err}
	if err != nil {
		return &Result{Archives: []ArchiveResult{ar}}, err
	}
	return &Result{
		Archives:     []ArchiveResult{ar},
		FilesWritten: extractResult.FilesWritten,
		FilesFailed:  extractResult.FilesFailed,
	}, nil
}

func runDirectory(root, outputDir string, opts Options) (*Result, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: read root dir: %w", err)
	}

	result := &Result{}
	progressBase := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		subdir := filepath.Join(root, e.Name())
		archives, err := findArchives(subdir)
		if err != nil || len(archives) == 0 {
			continue
		}

		subOutput := filepath.Join(outputDir, e.Name())
		for _, archivePath := range archives {
			identifier := opts.Identifier
			if identifier == "" {
				id, idErr := ResolveIdentifier(archivePath)
				if idErr != nil {
					return result, idErr
				}
				identifier = id
			}

			archiveOpts := opts
			if opts.Progress != nil {
				base := progressBase
				archiveOpts.Progress = func(completed, total int) {
					opts.Progress(base+completed, base+total)
				}
			}
			extractResult, err := UnpackOne(archivePath, identifier, subOutput, archiveOpts)
			ar := ArchiveResult{ArchivePath: archivePath, OutputDir: subOutput, Extract: extractResult, Err: err}
			result.Archives = append(result.Archives, ar)
			if err != nil {
				if errors.Is(err, crypto.ErrBadIdentifier) {
					return result, err
				}
				continue
			}
			result.FilesWritten += extractResult.FilesWritten
			result.FilesFailed += extractResult.FilesFailed
			progressBase += extractResult.FilesWritten + extractResult.FilesFailed
		}
	}
	return result, nil
}

// archivePattern is matched case-insensitively against each directory
// entry's name.
const archivePattern = "*.wxapkg"

func findArchives(dir string) ([]string, error) {
	var archives []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if glob.Glob(archivePattern, strings.ToLower(e.Name())) {
			archives = append(archives, filepath.Join(dir, e.Name()))
		}
	}
	return archives, nil
}

