package core

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mattori/backend/internal/observability"
)

// RetentionStore is the slice of the database the retention loop needs.
type RetentionStore interface {
	DeleteExpiredListings(ctx context.Context) (int64, error)
	DeleteUploadsBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

// FileRemover deletes a stored upload from disk.
type FileRemover interface {
	Remove(filename string) error
}

// RetentionService prunes expired cache rows and old uploads. Database rows
// go first so a crash between the two steps leaves orphaned files rather
// than dangling index rows.
type RetentionService struct {
	store     RetentionStore
	previews  FileRemover
	fmls      FileRemover
	retention time.Duration
}

func NewRetentionService(store RetentionStore, previews, fmls FileRemover, retention time.Duration) *RetentionService {
	return &RetentionService{
		store:     store,
		previews:  previews,
		fmls:      fmls,
		retention: retention,
	}
}

// Start runs one cleanup immediately, then once a day.
func (s *RetentionService) Start(ctx context.Context) {
	go func() {
		s.cleanup(ctx)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanup(ctx)
			}
		}
	}()
}

func (s *RetentionService) cleanup(ctx context.Context) {
	expired, err := s.store.DeleteExpiredListings(ctx)
	if err != nil {
		observability.IncError(observability.ErrorStore, "retention")
		slog.Error("retention: expired listing cleanup failed", "error", err)
	} else if expired > 0 {
		slog.Info("retention: expired listings removed", "count", expired)
	}

	cutoff := time.Now().Add(-s.retention)
	filenames, err := s.store.DeleteUploadsBefore(ctx, cutoff)
	if err != nil {
		observability.IncError(observability.ErrorStore, "retention")
		slog.Error("retention: upload index cleanup failed", "error", err)
		return
	}

	removed := 0
	for _, name := range filenames {
		var remover FileRemover
		switch filepath.Ext(name) {
		case ".jpg":
			remover = s.previews
		case ".fml":
			remover = s.fmls
		default:
			slog.Warn("retention: unrecognized upload filename", "filename", name)
			continue
		}
		if err := remover.Remove(name); err != nil {
			slog.Error("retention: file removal failed", "filename", name, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		slog.Info("retention: old uploads removed", "count", removed)
	}
}
