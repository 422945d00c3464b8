package catalog

import (
	"context"

	"github.com/mardix/equiptest/internal/document"
)

// Repository provides read access to the reference data reconciliation runs
// against. LoadTemplate returns (nil, nil) when no template exists — absence
// is a normal outcome, not an error.
type Repository interface {
	GetEquipment(ctx context.Context, id string) (*Equipment, error)
	GetSessionType(ctx context.Context, id string) (*SessionType, error)
	GetDocumentType(ctx context.Context, id string) (*DocumentType, error)
	ListTestTypes(ctx context.Context) ([]TestType, error)
	ListAssociations(ctx context.Context, sessionTypeID string) ([]Association, error)
	LoadTemplate(ctx context.Context, woNumber, m0, documentTypeID string) (*document.Document, error)
}
