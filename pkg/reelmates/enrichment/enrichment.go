// Package enrichment decorates matches with display metadata from an
// external media catalog. Enrichment is optional: the matching predicate
// never depends on it, and a failed lookup only drops the affected item.
package enrichment

import (
	"context"
	"fmt"

	"github.com/reelmates/reelmates/pkg/reelmates/models"
)

// Details is the display metadata for one piece of content.
type Details struct {
	Title  string `json:"title"`
	Poster string `json:"poster"`
}

// Describer looks up display metadata for a content item.
type Describer interface {
	Describe(ctx context.Context, contentID int64, kind models.MediaKind) (Details, error)
}

// Static is a fixed in-memory catalog, keyed by "kind:id". Lookups miss
// with an error, which exercises the per-item failure path in tests.
type Static map[string]Details

// Key builds the catalog key for a content item.
func Key(contentID int64, kind models.MediaKind) string {
	return fmt.Sprintf("%s:%d", kind, contentID)
}

// Describe returns the stored details or an error on a miss.
func (s Static) Describe(_ context.Context, contentID int64, kind models.MediaKind) (Details, error) {
	details, ok := s[Key(contentID, kind)]
	if !ok {
		return Details{}, fmt.Errorf("no metadata for %s %d", kind, contentID)
	}
	return details, nil
}
