package registry

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"github.com/phrazzld/powder/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var repoRefPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+/[A-Za-z0-9_-]+$`)

// ProjectInput is the full desired state for a project create
type ProjectInput struct {
	Status             model.ProjectStatus
	NameID             *uint
	ConsideringNameIDs []uint
	Description        string
	RepoRef            string
	DeployURL          string
	Tags               []string
}

// ProjectUpdate is a partial update merged over the existing record.
// Nil fields are left alone. ClearName expresses an explicit "drop the
// assigned name", which a nil NameID cannot (JSON has no way to tell
// absent from null through a pointer).
type ProjectUpdate struct {
	Status             *model.ProjectStatus
	NameID             *uint
	ClearName          bool
	ConsideringNameIDs *[]uint
	Description        *string
	RepoRef            *string
	DeployURL          *string
	Tags               *[]string
}

// CreateProject validates the input, persists the project and applies
// the name-side effects in one transaction. A linking failure rolls
// everything back; no partially created project survives.
func (s *Service) CreateProject(in ProjectInput) (uint, error) {
	if err := validateProject(in.Status, in.NameID, len(in.ConsideringNameIDs), in.RepoRef, in.DeployURL); err != nil {
		return 0, err
	}

	project := model.Project{
		Status:      in.Status,
		NameID:      in.NameID,
		Description: in.Description,
		RepoRef:     in.RepoRef,
		DeployURL:   in.DeployURL,
		Tags:        in.Tags,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return s.applyLinks(tx, project.ID, in.Status, in.NameID, in.ConsideringNameIDs)
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("project created",
		zap.Uint("project_id", project.ID),
		zap.String("status", string(project.Status)),
		zap.Int("considering_count", len(in.ConsideringNameIDs)))
	return project.ID, nil
}

// UpdateProject merges the partial input over the existing record,
// re-validates the merged result, and hands only the reference delta to
// the linking engine.
func (s *Service) UpdateProject(id uint, upd ProjectUpdate) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		project, err := findProject(tx, id)
		if err != nil {
			return err
		}

		oldConsidering, err := consideringNameIDs(tx, id)
		if err != nil {
			return err
		}
		old := linkRefs{nameID: project.NameID, considering: oldConsidering}

		if upd.Status != nil {
			project.Status = *upd.Status
		}
		if upd.ClearName {
			project.NameID = nil
		} else if upd.NameID != nil {
			project.NameID = upd.NameID
		}
		nextConsidering := oldConsidering
		if upd.ConsideringNameIDs != nil {
			nextConsidering = dedupe(*upd.ConsideringNameIDs)
		}
		if upd.Description != nil {
			project.Description = *upd.Description
		}
		if upd.RepoRef != nil {
			project.RepoRef = *upd.RepoRef
		}
		if upd.DeployURL != nil {
			project.DeployURL = *upd.DeployURL
		}
		if upd.Tags != nil {
			project.Tags = *upd.Tags
		}

		if err := validateProject(project.Status, project.NameID, len(nextConsidering), project.RepoRef, project.DeployURL); err != nil {
			return err
		}

		next := linkRefs{nameID: project.NameID, considering: nextConsidering}
		if err := s.reconcileLinks(tx, id, old, next); err != nil {
			return err
		}

		return tx.Save(project).Error
	})
}

// DeleteProject releases every referenced name first, then removes the
// project row, all in one transaction so an engine failure leaves the
// project intact.
func (s *Service) DeleteProject(id uint, releaseToPool bool) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := findProject(tx, id)
		if err != nil {
			return err
		}
		if err := s.releaseAll(tx, project, releaseToPool); err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
	if err != nil {
		return err
	}

	s.log.Info("project deleted",
		zap.Uint("project_id", id),
		zap.Bool("release_to_pool", releaseToPool))
	return nil
}

// PromoteIdea turns an idea into an active project by picking one of
// its considered names; the other candidates go back to the pool.
func (s *Service) PromoteIdea(id uint, chosenNameID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		project, err := findProject(tx, id)
		if err != nil {
			return err
		}
		return s.promoteIdea(tx, project, chosenNameID)
	})
}

func findProject(tx *gorm.DB, id uint) (*model.Project, error) {
	var project model.Project
	if err := tx.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &project, nil
}

// validateProject checks the business rules against a fully merged
// candidate state before anything is written.
func validateProject(status model.ProjectStatus, nameID *uint, consideringCount int, repoRef, deployURL string) error {
	if !status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown project status %q", status)}
	}

	if status == model.ProjectStatusIdea {
		if nameID != nil {
			return validationErr(1, "name_id", "idea projects cannot have an assigned name")
		}
		if repoRef != "" {
			return validationErr(1, "repo_ref", "idea projects carry no deployment metadata")
		}
		if deployURL != "" {
			return validationErr(1, "deploy_url", "idea projects carry no deployment metadata")
		}
	} else {
		if nameID == nil {
			return validationErr(2, "name_id", fmt.Sprintf("%s projects must have an assigned name", status))
		}
		if consideringCount > 0 {
			return validationErr(2, "considering_name_ids", fmt.Sprintf("%s projects cannot have considering names", status))
		}
	}

	if repoRef != "" && !repoRefPattern.MatchString(repoRef) {
		return validationErr(3, "repo_ref", "repo_ref must look like owner/repo")
	}

	if deployURL != "" {
		parsed, err := url.Parse(deployURL)
		if err != nil || !parsed.IsAbs() || parsed.Host == "" {
			return validationErr(4, "deploy_url", "deploy_url must be an absolute URL")
		}
	}

	return nil
}
