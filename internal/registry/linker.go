package registry

import (
	"fmt"

	"github.com/phrazzld/powder/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// linkRefs is the name-reference side of a project: the assigned name
// (nil for ideas) and the considering set.
type linkRefs struct {
	nameID      *uint
	considering []uint
}

// applyLinks applies the name-side effects of a freshly written project
// state. For ideas every considering name is checked for conflicts and
// moved to considering; for everything else the single name is assigned
// with a back-reference to the project. Runs inside the caller's
// transaction so a conflict rolls back the project write too.
func (s *Service) applyLinks(tx *gorm.DB, projectID uint, status model.ProjectStatus, nameID *uint, consideringIDs []uint) error {
	if status == model.ProjectStatusIdea {
		for _, id := range dedupe(consideringIDs) {
			if err := s.considerName(tx, projectID, id); err != nil {
				return err
			}
		}
		return nil
	}

	return s.assignName(tx, projectID, *nameID)
}

// reconcileLinks applies only the delta between two link states.
// Releases run before new links so a name dropped and re-added in the
// same update never conflicts with itself.
func (s *Service) reconcileLinks(tx *gorm.DB, projectID uint, old, next linkRefs) error {
	oldSet := toSet(old.considering)
	nextSet := toSet(next.considering)

	// Releases first: considering names dropped from the set.
	for id := range oldSet {
		if nextSet[id] {
			continue
		}
		if err := tx.Where("project_id = ? AND name_id = ?", projectID, id).
			Delete(&model.ProjectConsideringName{}).Error; err != nil {
			return err
		}
		name, err := findName(tx, id)
		if err != nil {
			return err
		}
		if err := releaseName(tx, name); err != nil {
			return err
		}
	}

	// Release the previously assigned name when it changed or was cleared.
	if old.nameID != nil && (next.nameID == nil || *next.nameID != *old.nameID) {
		name, err := findName(tx, *old.nameID)
		if err != nil {
			return err
		}
		if err := releaseName(tx, name); err != nil {
			return err
		}
	}

	// New links: considering names added to the set.
	for id := range nextSet {
		if oldSet[id] {
			continue
		}
		if err := s.considerName(tx, projectID, id); err != nil {
			return err
		}
	}

	// Newly set or changed assigned name.
	if next.nameID != nil && (old.nameID == nil || *old.nameID != *next.nameID) {
		if err := s.assignName(tx, projectID, *next.nameID); err != nil {
			return err
		}
	}

	return nil
}

// promoteIdea picks one considered name, assigns it, and releases the
// rest. The only path that changes project status and name in a single
// operation while also checking the chosen name was actually a
// candidate.
func (s *Service) promoteIdea(tx *gorm.DB, project *model.Project, chosenNameID uint) error {
	if project.Status != model.ProjectStatusIdea {
		return fmt.Errorf("project %d is %s: %w", project.ID, project.Status, ErrNotAnIdea)
	}

	considering, err := consideringNameIDs(tx, project.ID)
	if err != nil {
		return err
	}

	chosen := false
	for _, id := range considering {
		if id == chosenNameID {
			chosen = true
			break
		}
	}
	if !chosen {
		return fmt.Errorf("name %d for project %d: %w", chosenNameID, project.ID, ErrNameNotConsidered)
	}

	// Drop this project's join rows before releasing so the recompute
	// only sees other projects' references.
	if err := tx.Where("project_id = ?", project.ID).
		Delete(&model.ProjectConsideringName{}).Error; err != nil {
		return err
	}

	for _, id := range considering {
		if id == chosenNameID {
			continue
		}
		name, err := findName(tx, id)
		if err != nil {
			return err
		}
		if err := releaseName(tx, name); err != nil {
			return err
		}
	}

	chosenName, err := findName(tx, chosenNameID)
	if err != nil {
		return err
	}
	if err := transitionName(tx, chosenName, model.NameStatusAssigned, &project.ID); err != nil {
		return err
	}

	s.log.Info("idea promoted",
		zap.Uint("project_id", project.ID),
		zap.String("chosen_name", chosenName.Text),
		zap.Int("released_candidates", len(considering)-1))

	project.Status = model.ProjectStatusActive
	project.NameID = &chosenNameID
	return tx.Save(project).Error
}

// releaseAll frees every name a project references, used before the
// project row is deleted. The assigned name either goes back to the
// pool (releaseToPool) or is kept warm as considering so it surfaces
// for reconsideration; considered names are always recomputed from
// whatever references remain.
func (s *Service) releaseAll(tx *gorm.DB, project *model.Project, releaseToPool bool) error {
	if project.NameID != nil {
		name, err := findName(tx, *project.NameID)
		if err != nil {
			return err
		}
		if releaseToPool {
			if err := releaseName(tx, name); err != nil {
				return err
			}
		} else {
			if err := transitionName(tx, name, model.NameStatusConsidering, nil); err != nil {
				return err
			}
		}
	}

	considering, err := consideringNameIDs(tx, project.ID)
	if err != nil {
		return err
	}
	if err := tx.Where("project_id = ?", project.ID).
		Delete(&model.ProjectConsideringName{}).Error; err != nil {
		return err
	}
	for _, id := range considering {
		name, err := findName(tx, id)
		if err != nil {
			return err
		}
		if err := releaseName(tx, name); err != nil {
			return err
		}
	}
	return nil
}

// considerName checks for a conflicting assignment, records the join
// row and moves the name to considering.
func (s *Service) considerName(tx *gorm.DB, projectID, nameID uint) error {
	name, err := findName(tx, nameID)
	if err != nil {
		return err
	}
	if name.Status == model.NameStatusAssigned && (name.AssignedProjectID == nil || *name.AssignedProjectID != projectID) {
		return fmt.Errorf("name %q: %w", name.Text, ErrNameConflict)
	}

	row := model.ProjectConsideringName{ProjectID: projectID, NameID: nameID}
	if err := tx.Create(&row).Error; err != nil {
		return err
	}
	return transitionName(tx, name, model.NameStatusConsidering, nil)
}

// assignName checks for a conflicting assignment and binds the name to
// the project. Re-asserting an existing assignment is a no-op.
func (s *Service) assignName(tx *gorm.DB, projectID, nameID uint) error {
	name, err := findName(tx, nameID)
	if err != nil {
		return err
	}
	if name.Status == model.NameStatusAssigned {
		if name.AssignedProjectID != nil && *name.AssignedProjectID == projectID {
			return nil
		}
		return fmt.Errorf("name %q: %w", name.Text, ErrNameConflict)
	}
	return transitionName(tx, name, model.NameStatusAssigned, &projectID)
}

func consideringNameIDs(tx *gorm.DB, projectID uint) ([]uint, error) {
	var rows []model.ProjectConsideringName
	if err := tx.Where("project_id = ?", projectID).Order("name_id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.NameID)
	}
	return ids, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func toSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
