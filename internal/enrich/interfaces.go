// Package enrich plans and runs contact enrichment over the rows of a list.
package enrich

import (
	"context"

	"github.com/sells-group/dataforge/internal/model"
)

// TextExtractor turns a website into plain visible text.
type TextExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// ContactInferrer picks the most senior decision-maker out of free text.
// A result with Confidence 0 means nobody could be identified.
type ContactInferrer interface {
	Infer(ctx context.Context, text string, existing map[string]string) (*model.Contact, error)
}

// EmailFinder looks up a person's address from name and domain.
type EmailFinder interface {
	Find(ctx context.Context, firstName, lastName, domain string) (string, error)
}

// EmailVerifier classifies an address's deliverability. Implementations
// return the local role-account check even when the remote call fails.
type EmailVerifier interface {
	Verify(ctx context.Context, email string) (*model.Verification, error)
}

// RowStore is the row persistence used by enrichment. UpdateRow merges data
// and flags into the stored row in a single write.
type RowStore interface {
	GetRow(ctx context.Context, id string) (*model.Row, error)
	UpdateRow(ctx context.Context, id string, upd model.RowUpdate) error
	ListRows(ctx context.Context, listID string) ([]model.Row, error)
}
