package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveNoAssociations(t *testing.T) {
	res := Resolve(nil, "et-panel", "")
	require.False(t, res.HasDocument)
	require.Empty(t, res.DocumentTypeID)
}

func TestResolveEquipmentSpecificBeatsFallback(t *testing.T) {
	assocs := []Association{
		{TestTypeID: "tt1", DocumentTypeID: "dt-generic", EquipmentTypeID: ""},
		{TestTypeID: "tt1", DocumentTypeID: "dt-panel", EquipmentTypeID: "et-panel", HiddenWhenNoTemplate: true},
	}

	res := Resolve(assocs, "et-panel", "")
	require.True(t, res.HasDocument)
	require.Equal(t, "dt-panel", res.DocumentTypeID)
	require.True(t, res.HiddenWhenNoTemplate)
}

func TestResolveFallbackForOtherEquipment(t *testing.T) {
	assocs := []Association{
		{TestTypeID: "tt1", DocumentTypeID: "dt-panel", EquipmentTypeID: "et-panel"},
		{TestTypeID: "tt1", DocumentTypeID: "dt-generic", EquipmentTypeID: ""},
	}

	res := Resolve(assocs, "et-busbar", "")
	require.True(t, res.HasDocument)
	require.Equal(t, "dt-generic", res.DocumentTypeID)
	require.False(t, res.HiddenWhenNoTemplate)
}

func TestResolveUnsatisfiable(t *testing.T) {
	assocs := []Association{
		{TestTypeID: "tt1", DocumentTypeID: "dt-panel", EquipmentTypeID: "et-panel"},
	}

	// different equipment type, no fallback row: no document, no error
	res := Resolve(assocs, "et-busbar", "")
	require.False(t, res.HasDocument)
}

func TestResolveMasterTypeSatisfiesWithoutEquipmentMatch(t *testing.T) {
	assocs := []Association{
		{TestTypeID: "tt1", DocumentTypeID: "dt-master", EquipmentTypeID: "et-panel"},
	}

	res := Resolve(assocs, "et-busbar", "dt-master")
	require.True(t, res.HasDocument)
	require.Equal(t, "dt-master", res.DocumentTypeID)
}

func TestResolveAssociationWithoutDocumentType(t *testing.T) {
	assocs := []Association{
		{TestTypeID: "tt1", DocumentTypeID: "", EquipmentTypeID: ""},
	}

	res := Resolve(assocs, "et-panel", "")
	require.False(t, res.HasDocument, "a row with no document type carries no obligation")
}

func TestResolveEmptyEquipmentTypeNeverMatchesAsSpecific(t *testing.T) {
	assocs := []Association{
		{TestTypeID: "tt1", DocumentTypeID: "dt-generic", EquipmentTypeID: ""},
	}

	// session equipment with no type still resolves through the fallback path
	res := Resolve(assocs, "", "")
	require.True(t, res.HasDocument)
	require.Equal(t, "dt-generic", res.DocumentTypeID)
}
