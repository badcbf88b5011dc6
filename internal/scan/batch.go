package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/foundersai25/talkdoc-core/internal/detection"
	"github.com/foundersai25/talkdoc-core/internal/imaging"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BatchOptions configures Scanner.Batch.
type BatchOptions struct {
	// OutDir receives the artifacts.
	OutDir string

	// Workers is the number of images processed at once; <= 0 means the
	// number of CPUs. Interactive scanners always use one worker.
	Workers int

	Save SaveOptions
}

// BatchItem is the outcome for one input.
type BatchItem struct {
	Path     string
	Files    SavedFiles
	Source   detection.Source
	Degraded bool
	Duration time.Duration
	Err      error
}

// CollectImages lists the supported images in dir, sorted by name.
// Subdirectories are not searched.
func CollectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("collect images: %w", err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !imaging.IsSupported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Batch scans every path and saves its artifacts. A failing item is
// recorded in its BatchItem and never stops the others. Items are returned
// in input order.
func (s *Scanner) Batch(ctx context.Context, paths []string, opts BatchOptions) []BatchItem {
	items := make([]BatchItem, len(paths))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if s.opts.Interactive {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			items[i] = s.batchItem(ctx, path, opts)
			return nil
		})
	}
	_ = g.Wait()
	return items
}

func (s *Scanner) batchItem(ctx context.Context, path string, opts BatchOptions) BatchItem {
	item := BatchItem{Path: path}
	start := time.Now()
	log := s.log.WithField("image", path)

	if err := ctx.Err(); err != nil {
		item.Err = err
		return item
	}

	res, err := s.ScanFile(ctx, path)
	if err == nil {
		item.Source = res.Source
		item.Degraded = res.Degraded
		item.Files, err = SaveResult(res, opts.OutDir, filepath.Base(path), opts.Save)
	}
	item.Duration = time.Since(start)
	item.Err = err

	if err != nil {
		log.WithError(err).Error("Scan failed")
		return item
	}
	log.WithFields(logrus.Fields{
		"source":   item.Source,
		"degraded": item.Degraded,
		"output":   item.Files.Image,
		"elapsed":  item.Duration.Round(time.Millisecond),
	}).Info("Scanned")
	return item
}
