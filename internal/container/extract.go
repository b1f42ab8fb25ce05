package container

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// DefaultWorkers is the default extraction worker-pool width.
const DefaultWorkers = 30

// Transform rewrites entry bytes for one registered extension (e.g. a
// pretty-printer). A failing transform is never fatal: the extractor falls
// back to the untransformed bytes.
type Transform func(data []byte) ([]byte, error)

// ExtractOptions configures a single Extract call.
type ExtractOptions struct {
	// Workers bounds extraction concurrency. Zero uses DefaultWorkers.
	Workers int
	// Transforms maps a lowercase extension (with leading dot) to a
	// rewrite function. Nil or empty disables all transforms.
	Transforms map[string]Transform
	// EnableTransforms toggles whether registered Transforms run at all.
	EnableTransforms bool
	// Progress is invoked once per completed entry with (completed, total).
	// Ordering across entries is arbitrary; the final call always has
	// completed == total. May be nil.
	Progress func(completed, total int)
	Logger   *logrus.Logger
}

// ExtractResult summarizes one Extract run.
type ExtractResult struct {
	FilesWritten int
	FilesFailed  int
	// ExtensionCounts maps a lowercase extension to the number of entries
	// written with it, including entries whose transform failed and fell
	// back to raw bytes.
	ExtensionCounts map[string]int64
}

type extCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newExtCounter() *extCounter {
	return &extCounter{counts: make(map[string]int64)}
}

func (c *extCounter) add(ext string) {
	c.mu.Lock()
	c.counts[ext]++
	c.mu.Unlock()
}

func (c *extCounter) snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Extract materializes every entry to outputDir, concurrently, reading
// entry bytes as read-only slices of plaintext (no per-entry copy on the
// read path). Each entry's leading '/' is stripped before joining to
// outputDir; parent directories are created as needed. A per-entry write
// or transform failure is logged and counted, never aborts its siblings.
func Extract(plaintext []byte, entries []Entry, outputDir string, opts ExtractOptions) (*ExtractResult, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("container: create output dir: %w", err)
	}

	total := len(entries)
	jobs := make(chan Entry)
	counter := newExtCounter()
	var completed int64
	var failed int64
	// progressMu serialises the increment with its callback so the calls
	// arrive in count order and the last one carries completed == total.
	var progressMu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				if err := extractOne(plaintext, entry, outputDir, opts, counter, logger); err != nil {
					atomic.AddInt64(&failed, 1)
					logger.WithFields(logrus.Fields{
						"entry": entry.Name,
						"error": err,
					}).Warn("failed to write extracted entry")
				}
				progressMu.Lock()
				n := atomic.AddInt64(&completed, 1)
				if opts.Progress != nil {
					opts.Progress(int(n), total)
				}
				progressMu.Unlock()
			}
		}()
	}

	for _, e := range entries {
		jobs <- e
	}
	close(jobs)
	wg.Wait()

	return &ExtractResult{
		FilesWritten:    total - int(failed),
		FilesFailed:     int(failed),
		ExtensionCounts: counter.snapshot(),
	}, nil
}

// extractOne wraps writeEntry with panic recovery so a malformed entry (a
// transform panicking on unexpected input, for instance) degrades to a
// logged failure for that one entry rather than taking down the whole
// extraction run.
func extractOne(plaintext []byte, entry Entry, outputDir string, opts ExtractOptions, counter *extCounter, logger *logrus.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"entry": entry.Name,
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("panic recovered while extracting entry")
			err = fmt.Errorf("panic extracting %s: %v", entry.Name, r)
		}
	}()
	return writeEntry(plaintext, entry, outputDir, opts, counter)
}

func writeEntry(plaintext []byte, entry Entry, outputDir string, opts ExtractOptions, counter *extCounter) error {
	relPath := strings.TrimPrefix(entry.Name, "/")
	destPath := filepath.Join(outputDir, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("mkdir parent: %w", err)
	}

	data := plaintext[entry.Offset : entry.Offset+entry.Size]

	ext := strings.ToLower(filepath.Ext(destPath))
	counter.add(ext)

	if opts.EnableTransforms {
		if t, ok := opts.Transforms[ext]; ok {
			if out, err := t(data); err == nil {
				data = out
			}
			// Transform failure silently falls back to the raw bytes.
		}
	}

	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
