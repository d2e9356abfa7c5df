package registry

import (
	"errors"
	"fmt"

	"github.com/phrazzld/powder/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateName adds a new name to the pool. The text must be unique
// (case-sensitive exact match); the name starts out available.
func (s *Service) CreateName(text, notes string) (uint, error) {
	if text == "" {
		return 0, &ValidationError{Field: "text", Message: "text must not be empty"}
	}

	name := model.Name{
		Text:   text,
		Status: model.NameStatusAvailable,
		Notes:  notes,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Name{}).Where("text = ?", text).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("name %q: %w", text, ErrDuplicateName)
		}
		return tx.Create(&name).Error
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("name created",
		zap.Uint("name_id", name.ID),
		zap.String("text", name.Text))
	return name.ID, nil
}

// RenameName changes a name's text. Status and assignment are untouched.
func (s *Service) RenameName(id uint, newText string) error {
	if newText == "" {
		return &ValidationError{Field: "text", Message: "text must not be empty"}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		name, err := findName(tx, id)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&model.Name{}).Where("text = ? AND id != ?", newText, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("name %q: %w", newText, ErrDuplicateName)
		}

		return tx.Model(name).Update("text", newText).Error
	})
}

// DeleteName removes a name from the pool. Names that are assigned or
// under consideration cannot be deleted; release them first.
func (s *Service) DeleteName(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		name, err := findName(tx, id)
		if err != nil {
			return err
		}
		if name.Status != model.NameStatusAvailable {
			return fmt.Errorf("name %q is %s: %w", name.Text, name.Status, ErrNameInUse)
		}
		return tx.Delete(name).Error
	})
}

// UpdateNameNotes replaces a name's free-form notes. Pure metadata
// update, never touches status.
func (s *Service) UpdateNameNotes(id uint, notes string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		name, err := findName(tx, id)
		if err != nil {
			return err
		}
		return tx.Model(name).Update("notes", notes).Error
	})
}

// GetName returns a single name by id
func (s *Service) GetName(id uint) (*model.Name, error) {
	return findName(s.db, id)
}

// ListNames returns all names ordered by text, optionally filtered by
// status. An empty filter returns the whole pool.
func (s *Service) ListNames(statusFilter model.NameStatus) ([]model.Name, error) {
	query := s.db.Order("text asc")
	if statusFilter != "" {
		if !statusFilter.Valid() {
			return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown name status %q", statusFilter)}
		}
		query = query.Where("status = ?", statusFilter)
	}

	var names []model.Name
	if err := query.Find(&names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// NameStatusCounts returns the pool size per status, for the stats
// endpoint and the pool gauge.
func (s *Service) NameStatusCounts() (map[model.NameStatus]int, error) {
	type row struct {
		Status model.NameStatus
		Count  int
	}
	var rows []row
	if err := s.db.Model(&model.Name{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[model.NameStatus]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func findName(tx *gorm.DB, id uint) (*model.Name, error) {
	var name model.Name
	if err := tx.First(&name, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("name %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &name, nil
}

// transitionName moves a name to a new status with a guarded update.
// The allowed transitions:
//
//	available   -> considering, assigned
//	considering -> available, assigned
//	assigned    -> available, considering (keep-warm release)
//
// Self-transitions are no-ops for available and considering; assigned
// -> assigned always fails, a name must be released before it can be
// assigned again. The UPDATE is keyed on the observed from-status, so a
// concurrent transition makes RowsAffected come back zero and the
// caller's transaction fails instead of overwriting the winner's state.
func transitionName(tx *gorm.DB, name *model.Name, to model.NameStatus, assignedProjectID *uint) error {
	from := name.Status
	if from == to {
		if to == model.NameStatusAssigned {
			return fmt.Errorf("name %q: assigned -> assigned: %w", name.Text, ErrInvalidTransition)
		}
		return nil
	}

	legal := false
	switch from {
	case model.NameStatusAvailable:
		legal = to == model.NameStatusConsidering || to == model.NameStatusAssigned
	case model.NameStatusConsidering:
		legal = to == model.NameStatusAvailable || to == model.NameStatusAssigned
	case model.NameStatusAssigned:
		legal = to == model.NameStatusAvailable || to == model.NameStatusConsidering
	}
	if !legal {
		return fmt.Errorf("name %q: %s -> %s: %w", name.Text, from, to, ErrInvalidTransition)
	}

	result := tx.Model(&model.Name{}).
		Where("id = ? AND status = ?", name.ID, from).
		Updates(map[string]interface{}{
			"status":              to,
			"assigned_project_id": assignedProjectID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("name %q: concurrent status change: %w", name.Text, ErrInvalidTransition)
	}

	name.Status = to
	name.AssignedProjectID = assignedProjectID
	return nil
}

// releaseName drops a name back into the pool, recomputing the derived
// status from the references that remain: names still held in another
// project's considering set stay considering, everything else becomes
// available.
func releaseName(tx *gorm.DB, name *model.Name) error {
	var considering int64
	if err := tx.Model(&model.ProjectConsideringName{}).
		Where("name_id = ?", name.ID).
		Count(&considering).Error; err != nil {
		return err
	}

	to := model.NameStatusAvailable
	if considering > 0 {
		to = model.NameStatusConsidering
	}
	return transitionName(tx, name, to, nil)
}
