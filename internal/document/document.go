package document

import (
	"errors"
	"time"
)

var (
	// ErrEmptyDocument is returned when a document carries no revisions.
	// A persisted document must always have at least one.
	ErrEmptyDocument = errors.New("document has no revisions")
)

// Document is a typed container for an ordered history of revisions. The
// current content is always the latest revision; older revisions are kept
// and never mutated.
type Document struct {
	ID        string     `bson:"id" json:"id"`
	TypeID    string     `bson:"typeId" json:"typeId"`
	Revisions []Revision `bson:"revisions" json:"revisions"`
}

// Revision is one immutable version of a document's content. DocumentID is a
// back-reference for lookups, not an ownership edge. Checksum points into the
// content store.
type Revision struct {
	ID          string    `bson:"id" json:"id"`
	DocumentID  string    `bson:"documentId" json:"documentId"`
	DisplayName string    `bson:"displayName" json:"displayName"`
	FileName    string    `bson:"fileName" json:"fileName"`
	MimeType    string    `bson:"mimeType" json:"mimeType"`
	SizeBytes   int64     `bson:"sizeBytes" json:"sizeBytes"`
	Checksum    string    `bson:"checksum" json:"checksum"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	PublishedAt time.Time `bson:"publishedAt" json:"publishedAt"`
}

// Latest returns the revision with the greatest PublishedAt. Ties resolve to
// the first-created revision so the answer is deterministic.
func (d *Document) Latest() (*Revision, error) {
	if len(d.Revisions) == 0 {
		return nil, ErrEmptyDocument
	}
	best := 0
	for i := 1; i < len(d.Revisions); i++ {
		cur := &d.Revisions[i]
		win := &d.Revisions[best]
		if cur.PublishedAt.After(win.PublishedAt) {
			best = i
			continue
		}
		if cur.PublishedAt.Equal(win.PublishedAt) && cur.CreatedAt.Before(win.CreatedAt) {
			best = i
		}
	}
	return &d.Revisions[best], nil
}
