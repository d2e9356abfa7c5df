package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phrazzld/powder/internal/model"
)

// ConsideredName is a resolved considering-set entry
type ConsideredName struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// ProjectView is a project enriched with resolved name text for the
// presentation layer. Pure derived data.
type ProjectView struct {
	model.Project
	Name             string           `json:"name,omitempty"`
	ConsideringNames []ConsideredName `json:"considering_names,omitempty"`
}

// ProjectFilter narrows a project listing. Search is a case-insensitive
// substring match against the resolved name or the description.
type ProjectFilter struct {
	Status model.ProjectStatus
	Search string
}

// ProjectSort orders a project listing. Field is one of created_at,
// updated_at or name; order is asc or desc. Defaults to updated_at desc.
type ProjectSort struct {
	Field string
	Order string
}

// ProjectStats are the aggregate counts for the dashboard
type ProjectStats struct {
	Total    int                         `json:"total"`
	ByStatus map[model.ProjectStatus]int `json:"counts_by_status"`
}

// ListProjects returns enriched projects matching the filter, sorted as
// requested. Search and sort run over the enriched result set because
// resolved name text is not a stored project field.
func (s *Service) ListProjects(filter ProjectFilter, sortBy ProjectSort) ([]ProjectView, error) {
	field, desc, err := normalizeSort(sortBy)
	if err != nil {
		return nil, err
	}

	query := s.db
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown project status %q", filter.Status)}
		}
		query = query.Where("status = ?", filter.Status)
	}

	var projects []model.Project
	if err := query.Find(&projects).Error; err != nil {
		return nil, err
	}

	views, err := s.enrichProjects(projects)
	if err != nil {
		return nil, err
	}

	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		matched := views[:0]
		for _, v := range views {
			if strings.Contains(strings.ToLower(v.Name), needle) ||
				strings.Contains(strings.ToLower(v.Description), needle) {
				matched = append(matched, v)
			}
		}
		views = matched
	}

	sort.SliceStable(views, func(i, j int) bool {
		var less bool
		switch field {
		case "name":
			less = views[i].Name < views[j].Name
		case "created_at":
			less = views[i].CreatedAt.Before(views[j].CreatedAt)
		default:
			less = views[i].UpdatedAt.Before(views[j].UpdatedAt)
		}
		if desc {
			return !less && !equalSortKey(field, views[i], views[j])
		}
		return less
	})

	return views, nil
}

// GetProject returns a single enriched project
func (s *Service) GetProject(id uint) (*ProjectView, error) {
	project, err := findProject(s.db, id)
	if err != nil {
		return nil, err
	}
	views, err := s.enrichProjects([]model.Project{*project})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ProjectStats returns the total project count and the count per status
func (s *Service) ProjectStats() (*ProjectStats, error) {
	type row struct {
		Status model.ProjectStatus
		Count  int
	}
	var rows []row
	if err := s.db.Model(&model.Project{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	stats := ProjectStats{ByStatus: make(map[model.ProjectStatus]int)}
	for _, r := range rows {
		stats.ByStatus[r.Status] = r.Count
		stats.Total += r.Count
	}
	return &stats, nil
}

// enrichProjects resolves name ids to display text with one lookup per
// table. No caching at this scale.
func (s *Service) enrichProjects(projects []model.Project) ([]ProjectView, error) {
	if len(projects) == 0 {
		return []ProjectView{}, nil
	}

	projectIDs := make([]uint, 0, len(projects))
	for _, p := range projects {
		projectIDs = append(projectIDs, p.ID)
	}

	var joins []model.ProjectConsideringName
	if err := s.db.Where("project_id IN ?", projectIDs).Order("name_id asc").Find(&joins).Error; err != nil {
		return nil, err
	}

	nameIDs := make([]uint, 0, len(projects)+len(joins))
	for _, p := range projects {
		if p.NameID != nil {
			nameIDs = append(nameIDs, *p.NameID)
		}
	}
	for _, j := range joins {
		nameIDs = append(nameIDs, j.NameID)
	}

	nameText := make(map[uint]string, len(nameIDs))
	if len(nameIDs) > 0 {
		var names []model.Name
		if err := s.db.Where("id IN ?", nameIDs).Find(&names).Error; err != nil {
			return nil, err
		}
		for _, n := range names {
			nameText[n.ID] = n.Text
		}
	}

	consideringByProject := make(map[uint][]ConsideredName)
	for _, j := range joins {
		consideringByProject[j.ProjectID] = append(consideringByProject[j.ProjectID], ConsideredName{
			ID:   j.NameID,
			Text: nameText[j.NameID],
		})
	}

	views := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		view := ProjectView{
			Project:          p,
			ConsideringNames: consideringByProject[p.ID],
		}
		if p.NameID != nil {
			view.Name = nameText[*p.NameID]
		}
		views = append(views, view)
	}
	return views, nil
}

func normalizeSort(sortBy ProjectSort) (field string, desc bool, err error) {
	field = sortBy.Field
	if field == "" {
		field = "updated_at"
	}
	switch field {
	case "created_at", "updated_at", "name":
	default:
		return "", false, &ValidationError{Field: "sort", Message: fmt.Sprintf("unknown sort field %q", sortBy.Field)}
	}

	order := sortBy.Order
	if order == "" {
		order = "desc"
	}
	switch order {
	case "asc":
		desc = false
	case "desc":
		desc = true
	default:
		return "", false, &ValidationError{Field: "order", Message: fmt.Sprintf("unknown sort order %q", sortBy.Order)}
	}
	return field, desc, nil
}

func equalSortKey(field string, a, b ProjectView) bool {
	switch field {
	case "name":
		return a.Name == b.Name
	case "created_at":
		return a.CreatedAt.Equal(b.CreatedAt)
	default:
		return a.UpdatedAt.Equal(b.UpdatedAt)
	}
}
