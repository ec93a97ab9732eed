package logger

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// rotatingFile is the size-rotated log file behind Logger. A write that
// would push the file past its size limit first renames the current file
// with a timestamp suffix, optionally gzips it, and reopens a fresh file.
// Rotated siblings older than keepDays are pruned.
type rotatingFile struct {
	mu       sync.Mutex
	path     string
	limit    int64
	keepDays int
	compress bool
	out      *os.File
	size     int64
}

// newRotatingFile opens cfg.File for appending. The size limit and
// retention come straight from the logging config: a MaxSize of zero
// disables size rotation and a MaxAge of zero disables pruning.
func newRotatingFile(cfg Config) (*rotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	out, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := out.Stat()
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	f := &rotatingFile{
		path:     cfg.File,
		limit:    int64(cfg.MaxSize) * 1024 * 1024,
		keepDays: cfg.MaxAge,
		compress: cfg.Compress,
		out:      out,
		size:     info.Size(),
	}

	go f.prune()

	return f, nil
}

func (f *rotatingFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.limit > 0 && f.size > 0 && f.size+int64(len(p)) > f.limit {
		if err := f.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := f.out.Write(p)
	f.size += int64(n)
	return n, err
}

func (f *rotatingFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.out == nil {
		return nil
	}
	err := f.out.Close()
	f.out = nil
	return err
}

// rotate is called with the mutex held.
func (f *rotatingFile) rotate() error {
	if err := f.out.Close(); err != nil {
		return err
	}

	rotated := f.path + "." + time.Now().Format("20060102T150405")
	if err := os.Rename(f.path, rotated); err != nil {
		return err
	}

	if f.compress {
		go gzipAndRemove(rotated)
	}

	out, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	f.out = out
	f.size = 0

	go f.prune()

	return nil
}

// prune removes rotated files older than keepDays. Only path.* siblings
// match, so the live file is never touched.
func (f *rotatingFile) prune() {
	if f.keepDays <= 0 {
		return
	}

	rotated, err := filepath.Glob(f.path + ".*")
	if err != nil {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -f.keepDays)
	for _, path := range rotated {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(path)
		}
	}
}

// gzipAndRemove replaces path with path.gz. The original file is kept on
// any failure so no log data is lost.
func gzipAndRemove(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}

	gzw := gzip.NewWriter(dst)
	if _, err := io.Copy(gzw, src); err != nil {
		gzw.Close()
		dst.Close()
		return err
	}
	if err := gzw.Close(); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}
