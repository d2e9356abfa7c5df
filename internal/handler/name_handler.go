package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/phrazzld/powder/internal/model"
	"github.com/phrazzld/powder/pkg/logger"
	"github.com/phrazzld/powder/prometheus"
	"go.uber.org/zap"
)

// NameRequest defines the structure for name creation requests
type NameRequest struct {
	Text  string `json:"text"`
	Notes string `json:"notes"`
}

// RenameRequest defines the structure for rename requests
type RenameRequest struct {
	Text string `json:"text"`
}

// NotesRequest defines the structure for notes updates
type NotesRequest struct {
	Notes string `json:"notes"`
}

// ListNames handles retrieving the name pool with optional status filtering
func ListNames(c echo.Context) error {
	log := logger.FromContext(c)

	statusFilter := model.NameStatus(c.QueryParam("status"))
	names, err := svc.ListNames(statusFilter)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("names listed",
		zap.String("status_filter", string(statusFilter)),
		zap.Int("count", len(names)))
	return c.JSON(http.StatusOK, names)
}

// GetName handles retrieving a single name by ID
func GetName(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid name ID",
		})
	}

	name, err := svc.GetName(id)
	if err != nil {
		return writeError(c, log, err)
	}
	return c.JSON(http.StatusOK, name)
}

// CreateName handles adding a new name to the pool
func CreateName(c echo.Context) error {
	log := logger.FromContext(c)

	var req NameRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	defer prometheus.TrackDBOperation("name_create")(time.Now())

	id, err := svc.CreateName(req.Text, req.Notes)
	if err != nil {
		return writeError(c, log, err)
	}

	prometheus.RecordNameOperation("create")
	refreshNamePoolGauge(log)

	log.Info("name created", zap.Uint("name_id", id), zap.String("text", req.Text))
	name, err := svc.GetName(id)
	if err != nil {
		return writeError(c, log, err)
	}
	return c.JSON(http.StatusCreated, name)
}

// RenameName handles changing a name's text
func RenameName(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid name ID",
		})
	}

	var req RenameRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if err := svc.RenameName(id, req.Text); err != nil {
		return writeError(c, log, err)
	}

	prometheus.RecordNameOperation("rename")
	log.Info("name renamed", zap.Uint("name_id", id), zap.String("new_text", req.Text))

	name, err := svc.GetName(id)
	if err != nil {
		return writeError(c, log, err)
	}
	return c.JSON(http.StatusOK, name)
}

// UpdateNameNotes handles updating a name's free-form notes
func UpdateNameNotes(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid name ID",
		})
	}

	var req NotesRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if err := svc.UpdateNameNotes(id, req.Notes); err != nil {
		return writeError(c, log, err)
	}

	prometheus.RecordNameOperation("update_notes")
	name, err := svc.GetName(id)
	if err != nil {
		return writeError(c, log, err)
	}
	return c.JSON(http.StatusOK, name)
}

// DeleteName handles removing an unused name from the pool
func DeleteName(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid name ID",
		})
	}

	if err := svc.DeleteName(id); err != nil {
		return writeError(c, log, err)
	}

	prometheus.RecordNameOperation("delete")
	refreshNamePoolGauge(log)

	log.Info("name deleted", zap.Uint("name_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Name deleted successfully",
	})
}
