package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/savegress/hl7kit/pkg/workerpool"
)

// DefaultExtensions are the file suffixes collected from directories.
var DefaultExtensions = []string{".hl7"}

// Options configures a Runner
type Options struct {
	Workers         int
	QueueSize       int
	ShutdownTimeout time.Duration
	Rewrite         bool     // write normalized text back to files that changed
	MetricsFile     string   // textfile-collector output; empty disables it
	QuarantineDir   string   // failing files are copied here; empty disables it
	Extensions      []string // suffixes collected from directories
}

// Result is the outcome for one file.
type Result struct {
	Path        string
	MessageType string
	ControlID   string
	Segments    int
	Normalized  bool // line endings differed from the segment terminator
	Rewritten   bool
	Quarantined string // name of the copy in the quarantine directory
	Duration    time.Duration
	Err         error
}

// Report aggregates one run.
type Report struct {
	RunID       string
	Started     time.Time
	Duration    time.Duration
	Results     []Result
	Passed      int
	Failed      int
	Quarantined int
	Pool        workerpool.Stats
}

// Failures returns the results that did not verify.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Runner verifies message files on a worker pool.
type Runner struct {
	opts    Options
	logger  *slog.Logger
	metrics *Metrics
}

// NewRunner validates opts and returns a runner. A nil logger discards output.
func NewRunner(opts Options, logger *slog.Logger) (*Runner, error) {
	poolCfg := workerpool.Config{Workers: opts.Workers, QueueSize: opts.QueueSize, ShutdownTimeout: opts.ShutdownTimeout}
	if err := poolCfg.Validate(); err != nil {
		return nil, fmt.Errorf("batch runner: %w", err)
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{opts: opts, logger: logger, metrics: NewMetrics()}, nil
}

// Metrics returns the runner's collectors.
func (r *Runner) Metrics() *Metrics { return r.metrics }

// Run verifies every message file under paths. Directories are walked
// recursively; explicit files are always included. The returned error is
// non-nil only when the run itself could not complete; per-file failures are
// in the report.
func (r *Runner) Run(ctx context.Context, paths []string) (*Report, error) {
	var skip []string
	if r.opts.QuarantineDir != "" {
		skip = append(skip, r.opts.QuarantineDir)
	}
	files, err := Collect(paths, r.opts.Extensions, skip...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoInput
	}

	report := &Report{RunID: uuid.NewString(), Started: time.Now()}
	logger := r.logger.With("run_id", report.RunID)
	logger.Info("batch started", "files", len(files), "workers", r.opts.Workers, "rewrite", r.opts.Rewrite)

	pool, err := workerpool.NewWorkerPool(workerpool.Config{
		Workers:         r.opts.Workers,
		QueueSize:       r.opts.QueueSize,
		ShutdownTimeout: r.opts.ShutdownTimeout,
		ErrorHandler: func(err error) {
			logger.Debug("task failed", "error", err)
		},
	})
	if err != nil {
		return nil, err
	}

	var quarantine *Quarantine
	if r.opts.QuarantineDir != "" {
		if quarantine, err = OpenQuarantine(r.opts.QuarantineDir); err != nil {
			pool.Stop()
			return nil, err
		}
	}

	results := make([]Result, len(files))
	for i, path := range files {
		results[i] = Result{Path: path, Err: ErrNotRun}
	}

	var runErr error
	for i, path := range files {
		i, path := i, path
		err := pool.Submit(ctx, func(ctx context.Context) error {
			res := r.verifyFile(ctx, path)
			if res.Err != nil && quarantine != nil && ctx.Err() == nil {
				if entry, err := quarantine.Push(report.RunID, res); err != nil {
					logger.Error("quarantine failed", "file", res.Path, "error", err)
				} else {
					res.Quarantined = entry.Copy
				}
			}
			results[i] = res
			r.metrics.observe(res)
			if res.Err != nil {
				logger.Warn("verification failed", "file", res.Path, "error", res.Err)
			} else {
				logger.Debug("verified", "file", res.Path, "type", res.MessageType, "segments", res.Segments)
			}
			return res.Err
		})
		if err != nil {
			runErr = err
			break
		}
	}
	pool.Wait()
	if err := pool.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr == nil {
		runErr = ctx.Err()
	}
	if quarantine != nil {
		report.Quarantined = quarantine.Len()
		if err := quarantine.Close(); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	report.Results = results
	report.Pool = pool.Stats()
	report.Duration = time.Since(report.Started)
	for _, res := range results {
		if res.Err != nil {
			report.Failed++
		} else {
			report.Passed++
		}
	}

	if r.opts.MetricsFile != "" {
		if err := r.metrics.WriteFile(r.opts.MetricsFile); err != nil {
			logger.Error("write metrics", "file", r.opts.MetricsFile, "error", err)
			runErr = errors.Join(runErr, fmt.Errorf("write metrics: %w", err))
		}
	}

	logger.Info("batch finished", "passed", report.Passed, "failed", report.Failed, "duration", report.Duration)
	return report, runErr
}

func (r *Runner) verifyFile(ctx context.Context, path string) Result {
	start := time.Now()
	res := Result{Path: path}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}
	raw := string(data)

	sum, err := Verify(raw)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}
	res.MessageType = sum.MessageType
	res.ControlID = sum.ControlID
	res.Segments = sum.Segments
	res.Normalized = sum.Normalized != raw

	if r.opts.Rewrite && res.Normalized {
		if err := rewrite(path, sum.Normalized); err != nil {
			res.Err = fmt.Errorf("rewrite: %w", err)
		} else {
			res.Rewritten = true
		}
	}
	res.Duration = time.Since(start)
	return res
}

// rewrite replaces path with text, keeping its permissions.
func rewrite(path, text string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Collect expands paths into a sorted, de-duplicated file list. Directory
// entries are kept when their suffix is in exts (case-insensitive); the
// directories in skip are not descended into.
func Collect(paths []string, exts []string, skip ...string) ([]string, error) {
	skipped := make(map[string]bool, len(skip))
	for _, d := range skip {
		skipped[filepath.Clean(d)] = true
	}
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && p != root && skipped[filepath.Clean(p)] {
				return filepath.SkipDir
			}
			if d.IsDir() || !hasExt(p, exts) {
				return nil
			}
			add(p)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
