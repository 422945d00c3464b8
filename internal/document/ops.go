package document

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mardix/equiptest/internal/content"
	"github.com/mardix/equiptest/pkg/metrics"
)

// Supplied carries caller-provided content for one document write.
type Supplied struct {
	DisplayName string
	FileName    string
	MimeType    string
	Data        []byte
}

// New creates a document of the given type with a single revision holding
// data. The payload goes through the content store, so identical bytes are
// stored once.
func New(ctx context.Context, store content.Store, typeID string, in Supplied) (*Document, error) {
	doc := &Document{ID: uuid.NewString(), TypeID: typeID}
	if _, err := AppendRevision(ctx, store, doc, in); err != nil {
		return nil, err
	}
	return doc, nil
}

// AppendRevision writes a new revision unless the supplied content is
// indistinguishable from the current latest one: same checksum, same file
// name, same MIME type. Returns true when a revision was actually added.
// Revisions are append-only; nothing existing is touched.
func AppendRevision(ctx context.Context, store content.Store, doc *Document, in Supplied) (bool, error) {
	sum := content.ChecksumBytes(in.Data)
	if latest, err := doc.Latest(); err == nil {
		if latest.Checksum == sum && latest.FileName == in.FileName && latest.MimeType == in.MimeType {
			return false, nil
		}
	}
	blob, err := store.Put(ctx, in.Data)
	if err != nil {
		return false, fmt.Errorf("store content: %w", err)
	}
	now := time.Now().UTC()
	doc.Revisions = append(doc.Revisions, Revision{
		ID:          uuid.NewString(),
		DocumentID:  doc.ID,
		DisplayName: in.DisplayName,
		FileName:    in.FileName,
		MimeType:    in.MimeType,
		SizeBytes:   blob.SizeBytes,
		Checksum:    blob.Checksum,
		CreatedAt:   now,
		PublishedAt: now,
	})
	metrics.RevisionsAppended.Inc()
	return true, nil
}

// CloneFrom builds a fresh document of the template's type whose first
// revision copies the template's latest revision. The clone gets its own
// document and revision identities so template and instance lifecycles stay
// independent; the underlying blob is shared because it is immutable and
// content-addressed.
func CloneFrom(ctx context.Context, store content.Store, template *Document) (*Document, error) {
	src, err := template.Latest()
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", template.ID, err)
	}
	data, err := store.Get(ctx, src.Checksum)
	if err != nil {
		return nil, fmt.Errorf("template content: %w", err)
	}
	return New(ctx, store, template.TypeID, Supplied{
		DisplayName: src.DisplayName,
		FileName:    src.FileName,
		MimeType:    src.MimeType,
		Data:        data,
	})
}

// ReferencedChecksums accumulates the blob checksums still referenced by docs
// into out. Feed the union across all live documents to content.Store.Sweep.
func ReferencedChecksums(out map[string]bool, docs ...*Document) {
	for _, d := range docs {
		if d == nil {
			continue
		}
		for i := range d.Revisions {
			out[d.Revisions[i].Checksum] = true
		}
	}
}
