// Package scan runs discovery and extraction over a tree and builds the index.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/tagref/internal/discover"
	"github.com/phobologic/tagref/internal/index"
	"github.com/phobologic/tagref/internal/model"
	"github.com/phobologic/tagref/internal/parse"
)

// ErrTooLarge marks a file skipped because it exceeds Options.MaxFileSize.
var ErrTooLarge = errors.New("file exceeds size limit")

// Options configures a scan.
type Options struct {
	// Root is the scan root. Locations are relative to it.
	Root string
	// Paths are the root paths to walk, relative to Root or absolute. Empty means Root.
	Paths  []string
	Sigils model.Sigils
	// Jobs bounds the number of files extracted concurrently. Zero means GOMAXPROCS.
	Jobs int
	// MaxFileSize skips files larger than this many bytes. Zero means no limit.
	MaxFileSize int64
	// Logger receives warnings and debug output. Nil discards it.
	Logger *log.Logger
}

// Warning is a file that could not be scanned. It never stops the scan.
type Warning struct {
	Path string
	Err  error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// Result is the outcome of a scan.
type Result struct {
	Index    *index.Index
	Warnings []Warning
}

// Run discovers the eligible files, extracts their annotations on a bounded
// worker pool and reduces them into an index. Per-file failures become
// warnings; only an invalid configuration, a missing root path or a canceled
// context return an error.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	if opts.Sigils == (model.Sigils{}) {
		opts.Sigils = model.DefaultSigils()
	}
	matcher, err := parse.Compile(opts.Sigils)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	files, walkWarnings, err := discover.Files(ctx, opts.Root, opts.Paths)
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	logger.Debug("discovered files", "count", len(files), "elapsed", time.Since(start))

	res := &Result{}
	for _, w := range walkWarnings {
		res.Warnings = append(res.Warnings, Warning{Path: w.Path, Err: w.Err})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Each worker writes only its own slot.
	slots := make([]model.FileAnnotations, len(files))
	failures := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))
	for i := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			anns, err := extract(files[i], matcher, opts.MaxFileSize)
			if err != nil {
				failures[i] = err
				return nil
			}
			slots[i] = model.FileAnnotations{Path: files[i].Path, Annotations: anns}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scanned := make([]model.FileAnnotations, 0, len(files))
	for i := range files {
		if failures[i] != nil {
			res.Warnings = append(res.Warnings, Warning{Path: files[i].Path, Err: failures[i]})
			continue
		}
		scanned = append(scanned, slots[i])
	}

	for _, w := range res.Warnings {
		logger.Warn("skipped", "path", w.Path, "err", w.Err)
	}

	res.Index = index.Build(scanned)
	logger.Debug("scan complete",
		"files", res.Index.FilesScanned,
		"tags", len(res.Index.Tags),
		"refs", len(res.Index.Refs),
		"elapsed", time.Since(start),
	)
	return res, nil
}

func extract(f discover.FileEntry, matcher *parse.Matcher, maxSize int64) ([]model.Annotation, error) {
	if maxSize > 0 {
		info, err := os.Stat(f.AbsPath)
		if err != nil {
			return nil, err
		}
		if info.Size() > maxSize {
			return nil, fmt.Errorf("%w (>%d bytes)", ErrTooLarge, maxSize)
		}
	}

	data, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return nil, err
	}
	text, err := parse.Decode(data)
	if err != nil {
		return nil, err
	}
	return matcher.Extract(f.Path, text), nil
}
