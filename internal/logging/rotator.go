package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileRotator is an io.Writer over a log file that moves the file aside once
// it grows past Config.MaxSize megabytes. Rotated files are named
// <name>-<timestamp><ext>, optionally gzip compressed, and pruned by
// Config.MaxBackups and Config.MaxAge.
type FileRotator struct {
	path       string
	maxBytes   int64
	maxBackups int
	maxAge     time.Duration
	compress   bool

	mu   sync.Mutex
	file *os.File
	size int64
	now  func() time.Time
}

// NewFileRotator opens cfg.FilePath for appending, creating its directory.
func NewFileRotator(cfg *Config) (*FileRotator, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	r := &FileRotator{
		path:       cfg.FilePath,
		maxBytes:   cfg.MaxSize * 1024 * 1024,
		maxBackups: cfg.MaxBackups,
		maxAge:     time.Duration(cfg.MaxAge) * 24 * time.Hour,
		compress:   cfg.Compress,
		now:        time.Now,
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRotator) open() error {
	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	r.file = file
	r.size = info.Size()
	return nil
}

// Write implements io.Writer.
func (r *FileRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}
	if r.maxBytes > 0 && r.size > 0 && r.size+int64(len(p)) > r.maxBytes {
		if err := r.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log: %w", err)
		}
	}
	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// Rotate forces a rotation.
func (r *FileRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rotate()
}

func (r *FileRotator) rotate() error {
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return fmt.Errorf("close log: %w", err)
		}
		r.file = nil
	}

	name, ext := r.split()
	rotated := filepath.Join(filepath.Dir(r.path),
		name+"-"+r.now().Format("20060102-150405.000")+ext)
	if err := os.Rename(r.path, rotated); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log: %w", err)
	}
	if r.compress {
		if err := gzipFile(rotated); err != nil {
			return err
		}
	}
	if err := r.open(); err != nil {
		return err
	}
	r.prune()
	return nil
}

func (r *FileRotator) split() (name, ext string) {
	base := filepath.Base(r.path)
	ext = filepath.Ext(base)
	return strings.TrimSuffix(base, ext), ext
}

// gzipFile replaces path with path.gz.
func gzipFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("compress log: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(path+".gz", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("compress log: %w", err)
	}
	gz := gzip.NewWriter(out)
	gz.Name = filepath.Base(path)
	_, err = io.Copy(gz, in)
	if cerr := gz.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path + ".gz")
		return fmt.Errorf("compress log: %w", err)
	}
	return os.Remove(path)
}

// prune removes rotated files beyond the backup count or older than the
// maximum age, oldest first.
func (r *FileRotator) prune() {
	backups, err := r.backups()
	if err != nil {
		return
	}
	cutoff := r.now().Add(-r.maxAge)
	for i, b := range backups {
		tooMany := r.maxBackups > 0 && len(backups)-i > r.maxBackups
		tooOld := r.maxAge > 0 && b.modTime.Before(cutoff)
		if tooMany || tooOld {
			os.Remove(b.path)
		}
	}
}

type backup struct {
	path    string
	modTime time.Time
}

// backups lists rotated files sorted oldest first.
func (r *FileRotator) backups() ([]backup, error) {
	name, ext := r.split()
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(r.path), name+"-*"+ext+"*"))
	if err != nil {
		return nil, err
	}
	out := make([]backup, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		out = append(out, backup{path: m, modTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].modTime.Equal(out[j].modTime) {
			return out[i].path < out[j].path
		}
		return out[i].modTime.Before(out[j].modTime)
	})
	return out, nil
}

// Files returns the current log file followed by its backups, oldest first.
func (r *FileRotator) Files() ([]string, error) {
	backups, err := r.backups()
	files := []string{r.path}
	for _, b := range backups {
		files = append(files, b.path)
	}
	return files, err
}

// Close closes the underlying file.
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Sync flushes the file to disk.
func (r *FileRotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	return r.file.Sync()
}
