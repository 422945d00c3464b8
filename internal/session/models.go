package session

import (
	"time"

	"github.com/mardix/equiptest/internal/document"
)

// Status of a test session. The engine only ever moves sessions forward;
// Completed is terminal as far as reconciliation is concerned.
type Status string

const (
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
)

// Test is one test inside a session. Tests are created only by
// reconciliation, never inserted directly by callers. DocumentID, when set,
// points into the owning session's TestDocuments pool; two tests may share
// one document when their associations resolved to the same document type in
// a single reconcile pass.
type Test struct {
	ID                  string `bson:"id" json:"id"`
	SessionID           string `bson:"sessionId" json:"sessionId"`
	TestTypeID          string `bson:"testTypeId" json:"testTypeId"`
	DocumentID          string `bson:"documentId,omitempty" json:"documentId,omitempty"`
	Result              string `bson:"result,omitempty" json:"result,omitempty"`
	InstrumentReference string `bson:"instrumentReference,omitempty" json:"instrumentReference,omitempty"`
	Notes               string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Session is the test-session aggregate. It is persisted as one unit so a
// reconcile pass commits atomically. TestDocuments holds the documents
// referenced by Tests; CoreDocuments holds session-level documents, at most
// one per document type.
type Session struct {
	ID            string `bson:"id" json:"id"`
	EquipmentID   string `bson:"equipmentId" json:"equipmentId"`
	SessionTypeID string `bson:"sessionTypeId" json:"sessionTypeId"`

	Tester                 string `bson:"tester,omitempty" json:"tester,omitempty"`
	MardixSignatory        string `bson:"mardixSignatory,omitempty" json:"mardixSignatory,omitempty"`
	MardixWitnessSignatory string `bson:"mardixWitnessSignatory,omitempty" json:"mardixWitnessSignatory,omitempty"`
	ClientWitnessSignatory string `bson:"clientWitnessSignatory,omitempty" json:"clientWitnessSignatory,omitempty"`

	StartDate *time.Time `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Status    Status     `bson:"status" json:"status"`
	Result    string     `bson:"result,omitempty" json:"result,omitempty"`

	Tests         []Test              `bson:"tests" json:"tests"`
	TestDocuments []document.Document `bson:"testDocuments" json:"testDocuments"`
	CoreDocuments []document.Document `bson:"coreDocuments" json:"coreDocuments"`

	// LastDeviceUsed is the optimistic device-lock token: a coarse
	// last-writer marker, not a mutex.
	LastDeviceUsed string `bson:"lastDeviceUsed,omitempty" json:"lastDeviceUsed,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FindTest returns the test for the given test type, or nil.
func (s *Session) FindTest(testTypeID string) *Test {
	for i := range s.Tests {
		if s.Tests[i].TestTypeID == testTypeID {
			return &s.Tests[i]
		}
	}
	return nil
}

// TestDocument returns the pooled test-level document with the given id.
func (s *Session) TestDocument(id string) *document.Document {
	for i := range s.TestDocuments {
		if s.TestDocuments[i].ID == id {
			return &s.TestDocuments[i]
		}
	}
	return nil
}

// CoreDocumentByType returns the session-level document of the given type,
// or nil. The core set holds at most one document per type.
func (s *Session) CoreDocumentByType(typeID string) *document.Document {
	for i := range s.CoreDocuments {
		if s.CoreDocuments[i].TypeID == typeID {
			return &s.CoreDocuments[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the session. Repositories hand out clones so
// engine mutations stay invisible until commit.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Tests = append([]Test(nil), s.Tests...)
	cp.TestDocuments = cloneDocuments(s.TestDocuments)
	cp.CoreDocuments = cloneDocuments(s.CoreDocuments)
	if s.StartDate != nil {
		t := *s.StartDate
		cp.StartDate = &t
	}
	if s.EndDate != nil {
		t := *s.EndDate
		cp.EndDate = &t
	}
	return &cp
}

func cloneDocuments(docs []document.Document) []document.Document {
	if docs == nil {
		return nil
	}
	out := make([]document.Document, len(docs))
	for i := range docs {
		out[i] = docs[i]
		out[i].Revisions = append([]document.Revision(nil), docs[i].Revisions...)
	}
	return out
}
