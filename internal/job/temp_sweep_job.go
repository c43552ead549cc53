package job

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TempSweepJob removes OCR scratch files older than maxAge. The recognizer
// deletes its own files, so anything left behind belongs to a crashed process.
type TempSweepJob struct {
	dir    string
	prefix string
	maxAge time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewTempSweepJob(dir, prefix string, maxAge time.Duration, logger *zap.Logger) *TempSweepJob {
	return &TempSweepJob{
		dir:    dir,
		prefix: prefix,
		maxAge: maxAge,
		now:    time.Now,
		logger: logger,
	}
}

func (j *TempSweepJob) Name() string {
	return "ocr_temp_sweep"
}

func (j *TempSweepJob) Run(ctx context.Context) error {
	if j.dir == "" || j.prefix == "" || j.maxAge <= 0 {
		return nil
	}
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), j.prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			j.logger.Warn("remove stale temp file failed", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		j.logger.Info("stale temp files removed", zap.Int("count", removed), zap.String("dir", j.dir))
	}
	return nil
}
