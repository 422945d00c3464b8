package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mardix/equiptest/internal/errs"
	"github.com/mardix/equiptest/internal/session"
	"github.com/mardix/equiptest/pkg/middleware"
)

// suppliedDocument is the wire shape for one caller-supplied session
// document. Content is base64.
type suppliedDocument struct {
	TypeID      string `json:"typeId"`
	DisplayName string `json:"displayName"`
	FileName    string `json:"fileName"`
	MimeType    string `json:"mimeType"`
	Content     string `json:"content"`
}

type testFields struct {
	TestTypeID          string  `json:"testTypeId"`
	Result              *string `json:"result,omitempty"`
	InstrumentReference *string `json:"instrumentReference,omitempty"`
	Notes               *string `json:"notes,omitempty"`
}

type updateRequest struct {
	DeviceID               string             `json:"deviceId,omitempty"`
	Tester                 *string            `json:"tester,omitempty"`
	MardixSignatory        *string            `json:"mardixSignatory,omitempty"`
	MardixWitnessSignatory *string            `json:"mardixWitnessSignatory,omitempty"`
	ClientWitnessSignatory *string            `json:"clientWitnessSignatory,omitempty"`
	Result                 *string            `json:"result,omitempty"`
	StartDate              *time.Time         `json:"startDate,omitempty"`
	EndDate                *time.Time         `json:"endDate,omitempty"`
	CoreDocuments          []suppliedDocument `json:"coreDocuments,omitempty"`
	Tests                  []testFields       `json:"tests,omitempty"`
}

type createRequest struct {
	ID            string `json:"id,omitempty"`
	EquipmentID   string `json:"equipmentId"`
	SessionTypeID string `json:"sessionTypeId"`
	updateRequest
}

// RegisterSessionRoutes wires the test-session endpoints onto r.
func RegisterSessionRoutes(r *gin.Engine, eng *session.Engine) {
	r.POST("/api/sessions", func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.EquipmentID == "" || req.SessionTypeID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "equipmentId and sessionTypeId are required"})
			return
		}
		upd, err := toUpdate(c, req.updateRequest)
		if err != nil {
			writeError(c, err)
			return
		}
		s, err := eng.Create(c.Request.Context(), session.CreateRequest{
			ID:            req.ID,
			EquipmentID:   req.EquipmentID,
			SessionTypeID: req.SessionTypeID,
			UpdateRequest: upd,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, s)
	})

	r.GET("/api/sessions/:id", func(c *gin.Context) {
		s, err := eng.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	})

	r.PUT("/api/sessions/:id", func(c *gin.Context) {
		var req updateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		upd, err := toUpdate(c, req)
		if err != nil {
			writeError(c, err)
			return
		}
		s, err := eng.Update(c.Request.Context(), c.Param("id"), upd)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	})
}

// toUpdate decodes the wire request into the engine's update shape. The
// device id may arrive in the body or the X-Device-Id header; the body wins.
func toUpdate(c *gin.Context, req updateRequest) (session.UpdateRequest, error) {
	upd := session.UpdateRequest{
		DeviceID:               req.DeviceID,
		Tester:                 req.Tester,
		MardixSignatory:        req.MardixSignatory,
		MardixWitnessSignatory: req.MardixWitnessSignatory,
		ClientWitnessSignatory: req.ClientWitnessSignatory,
		Result:                 req.Result,
		StartDate:              req.StartDate,
		EndDate:                req.EndDate,
	}
	if upd.DeviceID == "" {
		upd.DeviceID = c.GetHeader(middleware.DeviceIDHeader)
	}
	for i, d := range req.CoreDocuments {
		data, err := base64.StdEncoding.DecodeString(d.Content)
		if err != nil {
			return upd, errs.NewValidation(fmt.Sprintf("coreDocuments[%d].content", i), "invalid base64")
		}
		upd.CoreDocuments = append(upd.CoreDocuments, session.SuppliedDocument{
			TypeID:      d.TypeID,
			DisplayName: d.DisplayName,
			FileName:    d.FileName,
			MimeType:    d.MimeType,
			Data:        data,
		})
	}
	for _, tf := range req.Tests {
		upd.TestFields = append(upd.TestFields, session.TestFieldUpdate{
			TestTypeID:          tf.TestTypeID,
			Result:              tf.Result,
			InstrumentReference: tf.InstrumentReference,
			Notes:               tf.Notes,
		})
	}
	return upd, nil
}

// writeError maps engine errors onto transport outcomes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrIntegrity):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		if ve, ok := errs.AsValidation(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": ve.Fields})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
