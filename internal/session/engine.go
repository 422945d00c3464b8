package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mardix/equiptest/internal/catalog"
	"github.com/mardix/equiptest/internal/content"
	"github.com/mardix/equiptest/internal/document"
	"github.com/mardix/equiptest/internal/errs"
	"github.com/mardix/equiptest/pkg/logger"
	"github.com/mardix/equiptest/pkg/metrics"
)

// SuppliedDocument is caller-provided content for one session-level
// document.
type SuppliedDocument struct {
	TypeID      string
	DisplayName string
	FileName    string
	MimeType    string
	Data        []byte
}

// TestFieldUpdate carries caller-editable free-text fields for one test.
// Nil pointers leave the stored value untouched.
type TestFieldUpdate struct {
	TestTypeID          string
	Result              *string
	InstrumentReference *string
	Notes               *string
}

// UpdateRequest is the desired session shape for one reconcile pass. Nil
// pointer fields are left unchanged; CoreDocuments is a merge, never a
// replace — types not mentioned are preserved.
type UpdateRequest struct {
	DeviceID string

	Tester                 *string
	MardixSignatory        *string
	MardixWitnessSignatory *string
	ClientWitnessSignatory *string
	Result                 *string

	StartDate *time.Time
	EndDate   *time.Time

	CoreDocuments []SuppliedDocument
	TestFields    []TestFieldUpdate
}

// CreateRequest starts a new session. The initial reconcile runs with the
// embedded UpdateRequest applied.
type CreateRequest struct {
	ID            string
	EquipmentID   string
	SessionTypeID string
	UpdateRequest
}

// Engine reconciles a session against the association and template reference
// data: it computes which tests must exist, which documents they and the
// session must carry, and whether the session has completed. The algorithm
// is an idempotent fixed point — re-running it with unchanged inputs changes
// nothing. All mutation happens on a private copy and commits in one Save.
type Engine struct {
	sessions Repository
	catalog  catalog.Repository
	content  content.Store
	now      func() time.Time
}

func NewEngine(sessions Repository, cat catalog.Repository, store content.Store) *Engine {
	return &Engine{
		sessions: sessions,
		catalog:  cat,
		content:  store,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create builds a new session and runs the first reconcile pass.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	} else {
		// A caller-supplied id must not resurrect an existing aggregate:
		// creating over it would drop its tests and revision history.
		switch _, err := e.sessions.Get(ctx, id); {
		case err == nil:
			return nil, fmt.Errorf("session %s already exists: %w", id, errs.ErrConflict)
		case !errors.Is(err, errs.ErrNotFound):
			return nil, err
		}
	}
	s := &Session{
		ID:            id,
		EquipmentID:   req.EquipmentID,
		SessionTypeID: req.SessionTypeID,
		Status:        StatusInProgress,
	}
	if err := e.reconcile(ctx, s, req.UpdateRequest); err != nil {
		return nil, err
	}
	return s, nil
}

// Update loads the session, checks the device lock and runs a reconcile
// pass. Any error leaves the stored aggregate untouched.
func (e *Engine) Update(ctx context.Context, id string, req UpdateRequest) (*Session, error) {
	s, err := e.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// Device lock, checked before any mutation: accept when the stored token
	// is empty or matches the caller's. Coarse and advisory — same-device
	// concurrent updates remain last-writer-wins.
	if s.LastDeviceUsed != "" && req.DeviceID != s.LastDeviceUsed {
		metrics.DeviceConflicts.Inc()
		return nil, fmt.Errorf("session %s held by device %s: %w", id, s.LastDeviceUsed, errs.ErrConflict)
	}
	if err := e.reconcile(ctx, s, req); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the stored session.
func (e *Engine) Get(ctx context.Context, id string) (*Session, error) {
	return e.sessions.Get(ctx, id)
}

func (e *Engine) reconcile(ctx context.Context, s *Session, req UpdateRequest) error {
	equip, err := e.catalog.GetEquipment(ctx, s.EquipmentID)
	if err != nil {
		return err
	}
	st, err := e.catalog.GetSessionType(ctx, s.SessionTypeID)
	if err != nil {
		return err
	}
	if err := e.validate(ctx, req); err != nil {
		return err
	}

	assocs, err := e.catalog.ListAssociations(ctx, s.SessionTypeID)
	if err != nil {
		return fmt.Errorf("load associations: %w", err)
	}
	byTestType := make(map[string][]catalog.Association)
	for _, a := range assocs {
		byTestType[a.TestTypeID] = append(byTestType[a.TestTypeID], a)
	}

	// Templates are read more than once per pass (hidden-flag check, then
	// assignment); memoize per document type, absence included.
	tplCache := make(map[string]*document.Document)
	loadTemplate := func(docTypeID string) (*document.Document, error) {
		if tpl, ok := tplCache[docTypeID]; ok {
			return tpl, nil
		}
		tpl, err := e.catalog.LoadTemplate(ctx, equip.WoNumber, equip.M0, docTypeID)
		if err != nil {
			return nil, fmt.Errorf("load template %s/%s/%s: %w", equip.WoNumber, equip.M0, docTypeID, err)
		}
		tplCache[docTypeID] = tpl
		return tpl, nil
	}

	if err := e.reconcileTests(ctx, s, st, equip, byTestType, loadTemplate); err != nil {
		return err
	}
	if err := e.reconcileCoreDocuments(ctx, s, st, req.CoreDocuments, loadTemplate); err != nil {
		return err
	}
	e.applyFields(s, req)
	if req.DeviceID != "" {
		s.LastDeviceUsed = req.DeviceID
	}
	EvaluateCompletion(s, st.RequiresWitness, req.EndDate, e.now())

	if err := e.sessions.Save(ctx, s); err != nil {
		return fmt.Errorf("commit session %s: %w", s.ID, err)
	}
	return nil
}

// reconcileTests materializes the test set and assigns per-test documents.
// Existing tests are never deleted and documents already attached to a test
// are never replaced.
func (e *Engine) reconcileTests(
	ctx context.Context,
	s *Session,
	st *catalog.SessionType,
	equip *catalog.Equipment,
	byTestType map[string][]catalog.Association,
	loadTemplate func(string) (*document.Document, error),
) error {
	testTypes, err := e.catalog.ListTestTypes(ctx)
	if err != nil {
		return fmt.Errorf("load test types: %w", err)
	}

	// within-pass memo: document type -> document created this pass, so
	// tests resolving to the same type share one document identity
	sharedDocs := make(map[string]string)

	for _, tt := range testTypes {
		if tt.Ordinal <= 0 {
			continue
		}
		res := catalog.Resolve(byTestType[tt.ID], equip.EquipmentTypeID, st.MasterDocumentTypeID)
		if res.HasDocument {
			if _, err := e.catalog.GetDocumentType(ctx, res.DocumentTypeID); err != nil {
				return err
			}
		}

		t := s.FindTest(tt.ID)
		if t == nil {
			if res.HasDocument && res.HiddenWhenNoTemplate {
				tpl, err := loadTemplate(res.DocumentTypeID)
				if err != nil {
					return err
				}
				if tpl == nil {
					// hidden: no template and no prior document, so the test
					// is not created
					continue
				}
			}
			s.Tests = append(s.Tests, Test{
				ID:         uuid.NewString(),
				SessionID:  s.ID,
				TestTypeID: tt.ID,
			})
			metrics.TestsCreated.Inc()
			t = &s.Tests[len(s.Tests)-1]
			logger.Debugf("session %s: created test %s (%s)", s.ID, t.ID, tt.Name)
		}

		if !res.HasDocument || t.DocumentID != "" {
			continue
		}
		if id, ok := sharedDocs[res.DocumentTypeID]; ok {
			t.DocumentID = id
			continue
		}
		tpl, err := loadTemplate(res.DocumentTypeID)
		if err != nil {
			return err
		}
		if tpl == nil {
			// no default content available; the test stays documentless
			continue
		}
		clone, err := document.CloneFrom(ctx, e.content, tpl)
		if err != nil {
			return fmt.Errorf("clone template for test type %s: %w", tt.ID, err)
		}
		s.TestDocuments = append(s.TestDocuments, *clone)
		sharedDocs[res.DocumentTypeID] = clone.ID
		t.DocumentID = clone.ID
	}
	return nil
}

// reconcileCoreDocuments merges supplied session-level documents into the
// core set keyed by document type. Types absent from the supplied list are
// preserved unchanged — an empty or partial list is a merge, never a
// replace. Required core types with an available template are then filled
// in.
func (e *Engine) reconcileCoreDocuments(
	ctx context.Context,
	s *Session,
	st *catalog.SessionType,
	supplied []SuppliedDocument,
	loadTemplate func(string) (*document.Document, error),
) error {
	for _, in := range supplied {
		payload := document.Supplied{
			DisplayName: in.DisplayName,
			FileName:    in.FileName,
			MimeType:    in.MimeType,
			Data:        in.Data,
		}
		if existing := s.CoreDocumentByType(in.TypeID); existing != nil {
			if _, err := document.AppendRevision(ctx, e.content, existing, payload); err != nil {
				return fmt.Errorf("append revision to %s: %w", existing.ID, err)
			}
			continue
		}
		doc, err := document.New(ctx, e.content, in.TypeID, payload)
		if err != nil {
			return fmt.Errorf("create core document %s: %w", in.TypeID, err)
		}
		s.CoreDocuments = append(s.CoreDocuments, *doc)
	}

	for _, dtID := range st.CoreDocumentTypeIDs {
		if s.CoreDocumentByType(dtID) != nil {
			continue
		}
		tpl, err := loadTemplate(dtID)
		if err != nil {
			return err
		}
		if tpl == nil {
			continue
		}
		clone, err := document.CloneFrom(ctx, e.content, tpl)
		if err != nil {
			return fmt.Errorf("clone core template %s: %w", dtID, err)
		}
		s.CoreDocuments = append(s.CoreDocuments, *clone)
	}
	return nil
}

// applyFields copies the scalar caller-supplied fields onto the session.
// EndDate is deliberately not applied here — it only lands through the
// completion evaluator.
func (e *Engine) applyFields(s *Session, req UpdateRequest) {
	if req.Tester != nil {
		s.Tester = *req.Tester
	}
	if req.MardixSignatory != nil {
		s.MardixSignatory = *req.MardixSignatory
	}
	if req.MardixWitnessSignatory != nil {
		s.MardixWitnessSignatory = *req.MardixWitnessSignatory
	}
	if req.ClientWitnessSignatory != nil {
		s.ClientWitnessSignatory = *req.ClientWitnessSignatory
	}
	if req.Result != nil {
		s.Result = *req.Result
	}
	if req.StartDate != nil {
		t := req.StartDate.UTC()
		s.StartDate = &t
	}
	for _, fu := range req.TestFields {
		t := s.FindTest(fu.TestTypeID)
		if t == nil {
			// test suppressed by the hidden rule or not yet applicable;
			// nothing to write on
			continue
		}
		if fu.Result != nil {
			t.Result = *fu.Result
		}
		if fu.InstrumentReference != nil {
			t.InstrumentReference = *fu.InstrumentReference
		}
		if fu.Notes != nil {
			t.Notes = *fu.Notes
		}
	}
}

// validate rejects malformed supplied documents and unresolvable references
// before anything is mutated.
func (e *Engine) validate(ctx context.Context, req UpdateRequest) error {
	for i, in := range req.CoreDocuments {
		if in.TypeID == "" {
			return errs.NewValidation(fmt.Sprintf("coreDocuments[%d].typeId", i), "required")
		}
		if in.Data == nil {
			return errs.NewValidation(fmt.Sprintf("coreDocuments[%d].content", i), "required")
		}
		if _, err := e.catalog.GetDocumentType(ctx, in.TypeID); err != nil {
			return err
		}
	}
	if len(req.TestFields) > 0 {
		testTypes, err := e.catalog.ListTestTypes(ctx)
		if err != nil {
			return fmt.Errorf("load test types: %w", err)
		}
		known := make(map[string]bool, len(testTypes))
		for _, tt := range testTypes {
			known[tt.ID] = true
		}
		for _, fu := range req.TestFields {
			if !known[fu.TestTypeID] {
				return fmt.Errorf("test type %s: %w", fu.TestTypeID, errs.ErrNotFound)
			}
		}
	}
	return nil
}
