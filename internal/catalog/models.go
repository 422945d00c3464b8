package catalog

import (
	"github.com/mardix/equiptest/internal/document"
)

// Equipment is the manufactured unit a test session runs against. WoNumber
// and M0 together identify the unit within its works order and key the
// template lookup.
type Equipment struct {
	ID              string `bson:"id" json:"id"`
	SerialReference string `bson:"serialReference" json:"serialReference"`
	EquipmentTypeID string `bson:"equipmentTypeId" json:"equipmentTypeId"`
	WoNumber        string `bson:"woNumber" json:"woNumber"`
	M0              string `bson:"m0" json:"m0"`
}

// TestType is one kind of test a session may contain. Types with a positive
// ordinal are in scope for reconciliation; the ordinal also fixes display
// order.
type TestType struct {
	ID      string `bson:"id" json:"id"`
	Name    string `bson:"name" json:"name"`
	Ordinal int    `bson:"ordinal" json:"ordinal"`
}

// DocumentType names a certificate/document category.
type DocumentType struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// SessionType configures a kind of test session: whether sign-off needs a
// witness, which document type (if any) acts as the master document, and
// which document types every session of this kind must carry at session
// level.
type SessionType struct {
	ID                   string   `bson:"id" json:"id"`
	Name                 string   `bson:"name" json:"name"`
	RequiresWitness      bool     `bson:"requiresWitness" json:"requiresWitness"`
	MasterDocumentTypeID string   `bson:"masterDocumentTypeId,omitempty" json:"masterDocumentTypeId,omitempty"`
	CoreDocumentTypeIDs  []string `bson:"coreDocumentTypeIds,omitempty" json:"coreDocumentTypeIds,omitempty"`
}

// Association is one declarative routing row: for a (session type, test
// type) pair it names the required document type. Rows may be specialized by
// equipment type; a row with EquipmentTypeID empty is the generic fallback.
type Association struct {
	ID                   string `bson:"id" json:"id"`
	SessionTypeID        string `bson:"sessionTypeId" json:"sessionTypeId"`
	TestTypeID           string `bson:"testTypeId" json:"testTypeId"`
	DocumentTypeID       string `bson:"documentTypeId" json:"documentTypeId"`
	EquipmentTypeID      string `bson:"equipmentTypeId,omitempty" json:"equipmentTypeId,omitempty"`
	HiddenWhenNoTemplate bool   `bson:"hiddenWhenNoTemplate" json:"hiddenWhenNoTemplate"`
}

// Template is a pre-authored document serving as default content for a given
// unit and document type.
type Template struct {
	ID             string            `bson:"id" json:"id"`
	WoNumber       string            `bson:"woNumber" json:"woNumber"`
	M0             string            `bson:"m0" json:"m0"`
	DocumentTypeID string            `bson:"documentTypeId" json:"documentTypeId"`
	Document       document.Document `bson:"document" json:"document"`
}
