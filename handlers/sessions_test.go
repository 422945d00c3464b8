package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mardix/equiptest/internal/catalog"
	"github.com/mardix/equiptest/internal/content"
	"github.com/mardix/equiptest/internal/session"
)

func newTestRouter(t *testing.T) (*gin.Engine, *catalog.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat := catalog.NewMemoryRepo()
	cat.AddEquipment(catalog.Equipment{ID: "eq1", EquipmentTypeID: "et-panel", WoNumber: "WO-1", M0: "M0-1"})
	cat.AddSessionType(catalog.SessionType{ID: "st1", Name: "Routine"})
	cat.AddDocumentType(catalog.DocumentType{ID: "dt-core", Name: "Build Record"})
	cat.AddTestType(catalog.TestType{ID: "tt1", Name: "Continuity", Ordinal: 1})

	eng := session.NewEngine(session.NewMemoryRepo(), cat, content.NewMemoryStore())
	r := gin.New()
	RegisterSessionRoutes(r, eng)
	return r, cat
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetSession(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/api/sessions", gin.H{"equipmentId": "eq1", "sessionTypeId": "st1"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created session.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.Len(t, created.Tests, 1)

	w2 := doJSON(t, r, "GET", "/api/sessions/"+created.ID, gin.H{})
	require.Equal(t, http.StatusOK, w2.Code)
}

func TestCreateMissingFields(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, "POST", "/api/sessions", gin.H{"equipmentId": "eq1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUnknownSession(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, "GET", "/api/sessions/nope", gin.H{})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateWithCoreDocument(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/api/sessions", gin.H{"equipmentId": "eq1", "sessionTypeId": "st1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created session.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	payload := gin.H{"coreDocuments": []gin.H{{
		"typeId":   "dt-core",
		"fileName": "build.pdf",
		"mimeType": "application/pdf",
		"content":  base64.StdEncoding.EncodeToString([]byte("build record")),
	}}}
	w2 := doJSON(t, r, "PUT", "/api/sessions/"+created.ID, payload)
	require.Equal(t, http.StatusOK, w2.Code)

	var updated session.Session
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &updated))
	require.Len(t, updated.CoreDocuments, 1)
	require.Equal(t, "dt-core", updated.CoreDocuments[0].TypeID)
}

func TestUpdateRejectsBadBase64(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/api/sessions", gin.H{"equipmentId": "eq1", "sessionTypeId": "st1"})
	var created session.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	payload := gin.H{"coreDocuments": []gin.H{{
		"typeId": "dt-core", "fileName": "x.pdf", "mimeType": "application/pdf", "content": "%%not-base64%%",
	}}}
	w2 := doJSON(t, r, "PUT", "/api/sessions/"+created.ID, payload)
	require.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestUpdateDeviceConflictMapsTo409(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/api/sessions", gin.H{
		"equipmentId": "eq1", "sessionTypeId": "st1", "deviceId": "tablet-7",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created session.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w2 := doJSON(t, r, "PUT", "/api/sessions/"+created.ID, gin.H{"deviceId": "tablet-9"})
	require.Equal(t, http.StatusConflict, w2.Code)
}

func TestDeviceIDFromHeader(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/api/sessions", gin.H{"equipmentId": "eq1", "sessionTypeId": "st1", "deviceId": "tablet-7"})
	var created session.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(gin.H{}))
	req := httptest.NewRequest("PUT", fmt.Sprintf("/api/sessions/%s", created.ID), &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Device-Id", "tablet-9")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
}
