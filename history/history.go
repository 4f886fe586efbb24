// Package history stores successful scrape results of authenticated users.
package history

import (
	"context"
	"errors"

	"github.com/use-agent/scrapekit/models"
)

// Recorder persists one history entry.
type Recorder interface {
	Record(ctx context.Context, entry *models.HistoryEntry) error
}

// Store is a Recorder that can also list a user's entries, newest first.
type Store interface {
	Recorder
	List(ctx context.Context, userID string) ([]models.HistoryEntry, error)
}

// Tee forwards every entry to all recorders, in order. All recorders are
// called even if one fails; the errors are joined.
func Tee(recorders ...Recorder) Recorder {
	return tee(recorders)
}

type tee []Recorder

func (t tee) Record(ctx context.Context, entry *models.HistoryEntry) error {
	var errs []error
	for _, r := range t {
		if err := r.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
