package catalog

// Resolution is the outcome of routing one (session type, test type) pair.
// HasDocument false means the test is a base test with no document
// obligation (or the obligation was unsatisfiable for this equipment).
type Resolution struct {
	DocumentTypeID       string
	HiddenWhenNoTemplate bool
	HasDocument          bool
}

// Resolve picks the applicable association for one test type. assocs must
// already be filtered to the (session type, test type) pair. Preference
// order: the row matching the session equipment's type, then the generic
// fallback row (empty equipment type). When rows exist but neither applies,
// the obligation is unsatisfiable and no document is attached — not an
// error. masterDocTypeID, when set on the session type, satisfies the
// obligation for any row mapped to that type even without an equipment
// match.
//
// A specific row must always beat the fallback: two rows for the same test
// type with different equipment types never both apply.
func Resolve(assocs []Association, equipmentTypeID, masterDocTypeID string) Resolution {
	if len(assocs) == 0 {
		return Resolution{}
	}
	var fallback *Association
	for i := range assocs {
		a := &assocs[i]
		if a.EquipmentTypeID == equipmentTypeID && equipmentTypeID != "" {
			return Resolution{
				DocumentTypeID:       a.DocumentTypeID,
				HiddenWhenNoTemplate: a.HiddenWhenNoTemplate,
				HasDocument:          a.DocumentTypeID != "",
			}
		}
		if a.EquipmentTypeID == "" && fallback == nil {
			fallback = a
		}
	}
	if fallback != nil {
		return Resolution{
			DocumentTypeID:       fallback.DocumentTypeID,
			HiddenWhenNoTemplate: fallback.HiddenWhenNoTemplate,
			HasDocument:          fallback.DocumentTypeID != "",
		}
	}
	// No row applies to this equipment. A row mapped to the session type's
	// master document type still satisfies the obligation.
	if masterDocTypeID != "" {
		for i := range assocs {
			if assocs[i].DocumentTypeID == masterDocTypeID {
				return Resolution{
					DocumentTypeID:       masterDocTypeID,
					HiddenWhenNoTemplate: assocs[i].HiddenWhenNoTemplate,
					HasDocument:          true,
				}
			}
		}
	}
	return Resolution{}
}
