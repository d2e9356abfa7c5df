package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/phrazzld/powder/internal/model"
	"github.com/phrazzld/powder/internal/registry"
	"github.com/phrazzld/powder/pkg/logger"
	"github.com/phrazzld/powder/prometheus"
	"go.uber.org/zap"
)

// ProjectRequest defines the structure for project creation requests
type ProjectRequest struct {
	Status             string   `json:"status"`
	NameID             *uint    `json:"name_id"`
	ConsideringNameIDs []uint   `json:"considering_name_ids"`
	Description        string   `json:"description"`
	RepoRef            string   `json:"repo_ref"`
	DeployURL          string   `json:"deploy_url"`
	Tags               []string `json:"tags"`
}

// ProjectUpdateRequest defines the structure for partial project
// updates. Omitted fields are left alone; clear_name drops the assigned
// name explicitly.
type ProjectUpdateRequest struct {
	Status             *string   `json:"status"`
	NameID             *uint     `json:"name_id"`
	ClearName          bool      `json:"clear_name"`
	ConsideringNameIDs *[]uint   `json:"considering_name_ids"`
	Description        *string   `json:"description"`
	RepoRef            *string   `json:"repo_ref"`
	DeployURL          *string   `json:"deploy_url"`
	Tags               *[]string `json:"tags"`
}

// PromoteRequest defines the structure for idea promotion requests
type PromoteRequest struct {
	NameID uint `json:"name_id"`
}

// ListProjects handles retrieving projects with filtering, search and sort
func ListProjects(c echo.Context) error {
	log := logger.FromContext(c)

	filter := registry.ProjectFilter{
		Status: model.ProjectStatus(c.QueryParam("status")),
		Search: c.QueryParam("search"),
	}
	sortBy := registry.ProjectSort{
		Field: c.QueryParam("sort"),
		Order: c.QueryParam("order"),
	}

	views, err := svc.ListProjects(filter, sortBy)
	if err != nil {
		return writeError(c, log, err)
	}

	log.Info("projects listed",
		zap.String("status_filter", string(filter.Status)),
		zap.String("search", filter.Search),
		zap.Int("count", len(views)))
	return c.JSON(http.StatusOK, views)
}

// GetProject handles retrieving a single enriched project by ID
func GetProject(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid project ID",
		})
	}

	view, err := svc.GetProject(id)
	if err != nil {
		return writeError(c, log, err)
	}
	return c.JSON(http.StatusOK, view)
}

// GetProjectStats handles the aggregate project counts
func GetProjectStats(c echo.Context) error {
	log := logger.FromContext(c)

	stats, err := svc.ProjectStats()
	if err != nil {
		return writeError(c, log, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// CreateProject handles creating a new project with its name links
func CreateProject(c echo.Context) error {
	log := logger.FromContext(c)

	var req ProjectRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	log.Info("project creation request",
		zap.String("status", req.Status),
		zap.Int("considering_count", len(req.ConsideringNameIDs)))

	defer prometheus.TrackDBOperation("project_create")(time.Now())

	id, err := svc.CreateProject(registry.ProjectInput{
		Status:             model.ProjectStatus(req.Status),
		NameID:             req.NameID,
		ConsideringNameIDs: req.ConsideringNameIDs,
		Description:        req.Description,
		RepoRef:            req.RepoRef,
		DeployURL:          req.DeployURL,
		Tags:               req.Tags,
	})
	if err != nil {
		return writeError(c, log, err)
	}

	prometheus.RecordProjectOperation("create")
	refreshNamePoolGauge(log)

	view, err := svc.GetProject(id)
	if err != nil {
		return writeError(c, log, err)
	}
	return c.JSON(http.StatusCreated, view)
}

// UpdateProject handles partial project updates
func UpdateProject(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid project ID",
		})
	}

	var req ProjectUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.Uint("project_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	upd := registry.ProjectUpdate{
		NameID:             req.NameID,
		ClearName:          req.ClearName,
		ConsideringNameIDs: req.ConsideringNameIDs,
		Description:        req.Description,
		RepoRef:            req.RepoRef,
		DeployURL:          req.DeployURL,
		Tags:               req.Tags,
	}
	if req.Status != nil {
		status := model.ProjectStatus(*req.Status)
		upd.Status = &status
	}

	if err := svc.UpdateProject(id, upd); err != nil {
		return writeError(c, log, err)
	}

	prometheus.RecordProjectOperation("update")
	refreshNamePoolGauge(log)

	log.Info("project updated", zap.Uint("project_id", id))
	view, err := svc.GetProject(id)
	if err != nil {
		return writeError(c, log, err)
	}
	return c.JSON(http.StatusOK, view)
}

// PromoteProject handles promoting an idea to active with a chosen name
func PromoteProject(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid project ID",
		})
	}

	var req PromoteRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.Uint("project_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if err := svc.PromoteIdea(id, req.NameID); err != nil {
		return writeError(c, log, err)
	}

	prometheus.RecordProjectOperation("promote")
	refreshNamePoolGauge(log)

	log.Info("project promoted",
		zap.Uint("project_id", id),
		zap.Uint("chosen_name_id", req.NameID))
	view, err := svc.GetProject(id)
	if err != nil {
		return writeError(c, log, err)
	}
	return c.JSON(http.StatusOK, view)
}

// DeleteProject handles deleting a project and releasing its names
func DeleteProject(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid project ID",
		})
	}

	// Names go back to the pool unless the caller asks to keep them warm
	releaseToPool := true
	if raw := c.QueryParam("release_to_pool"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Invalid release_to_pool parameter",
			})
		}
		releaseToPool = parsed
	}

	if err := svc.DeleteProject(id, releaseToPool); err != nil {
		return writeError(c, log, err)
	}

	prometheus.RecordProjectOperation("delete")
	refreshNamePoolGauge(log)

	log.Info("project deleted",
		zap.Uint("project_id", id),
		zap.Bool("release_to_pool", releaseToPool))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Project deleted successfully",
	})
}
