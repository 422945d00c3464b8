package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mardix/equiptest/internal/document"
	"github.com/mardix/equiptest/internal/errs"
)

// MemoryRepo is a simple in-memory reference-data repository used for unit
// tests and for running the service without Mongo configured. Seed it with
// the Add* methods before use.
type MemoryRepo struct {
	mu           sync.RWMutex
	equipment    map[string]Equipment
	sessionTypes map[string]SessionType
	docTypes     map[string]DocumentType
	testTypes    []TestType
	associations []Association
	templates    []Template
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		equipment:    make(map[string]Equipment),
		sessionTypes: make(map[string]SessionType),
		docTypes:     make(map[string]DocumentType),
	}
}

func (m *MemoryRepo) AddEquipment(e Equipment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equipment[e.ID] = e
}

func (m *MemoryRepo) AddSessionType(st SessionType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionTypes[st.ID] = st
}

func (m *MemoryRepo) AddDocumentType(dt DocumentType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docTypes[dt.ID] = dt
}

func (m *MemoryRepo) AddTestType(tt TestType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.testTypes = append(m.testTypes, tt)
}

func (m *MemoryRepo) AddAssociation(a Association) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.associations = append(m.associations, a)
}

func (m *MemoryRepo) AddTemplate(t Template) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = append(m.templates, t)
}

// RemoveTemplate deletes the template for the given key if present.
func (m *MemoryRepo) RemoveTemplate(woNumber, m0, documentTypeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.templates[:0]
	for _, t := range m.templates {
		if t.WoNumber == woNumber && t.M0 == m0 && t.DocumentTypeID == documentTypeID {
			continue
		}
		out = append(out, t)
	}
	m.templates = out
}

func (m *MemoryRepo) GetEquipment(_ context.Context, id string) (*Equipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.equipment[id]; ok {
		return &e, nil
	}
	return nil, fmt.Errorf("equipment %s: %w", id, errs.ErrNotFound)
}

func (m *MemoryRepo) GetSessionType(_ context.Context, id string) (*SessionType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.sessionTypes[id]; ok {
		return &st, nil
	}
	return nil, fmt.Errorf("session type %s: %w", id, errs.ErrNotFound)
}

func (m *MemoryRepo) GetDocumentType(_ context.Context, id string) (*DocumentType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if dt, ok := m.docTypes[id]; ok {
		return &dt, nil
	}
	return nil, fmt.Errorf("document type %s: %w", id, errs.ErrNotFound)
}

func (m *MemoryRepo) ListTestTypes(_ context.Context) ([]TestType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]TestType, len(m.testTypes))
	copy(out, m.testTypes)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

func (m *MemoryRepo) ListAssociations(_ context.Context, sessionTypeID string) ([]Association, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Association{}
	for _, a := range m.associations {
		if a.SessionTypeID == sessionTypeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryRepo) LoadTemplate(_ context.Context, woNumber, m0, documentTypeID string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.templates {
		if t.WoNumber == woNumber && t.M0 == m0 && t.DocumentTypeID == documentTypeID {
			doc := t.Document
			doc.Revisions = append([]document.Revision(nil), t.Document.Revisions...)
			return &doc, nil
		}
	}
	return nil, nil
}
