package model

import (
	"time"
)

// ProjectStatus is the lifecycle status of a project
type ProjectStatus string

const (
	ProjectStatusIdea     ProjectStatus = "idea"
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusPaused   ProjectStatus = "paused"
	ProjectStatusArchived ProjectStatus = "archived"
)

// Valid reports whether the status is one of the known project statuses
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusIdea, ProjectStatusActive, ProjectStatusPaused, ProjectStatusArchived:
		return true
	}
	return false
}

// Project represents a tracked software project
type Project struct {
	ID          uint          `json:"id" gorm:"primarykey"`
	Status      ProjectStatus `json:"status" gorm:"type:varchar(20);index;not null"`
	NameID      *uint         `json:"name_id,omitempty" gorm:"index"`
	Description string        `json:"description" gorm:"type:text"`
	RepoRef     string        `json:"repo_ref" gorm:"type:varchar(255)"`
	DeployURL   string        `json:"deploy_url" gorm:"type:varchar(2048)"`
	Tags        []string      `json:"tags" gorm:"type:text;serializer:json"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ProjectConsideringName represents a name an idea-stage project is
// considering. A name can appear in the considering set of several
// projects at once; assignment is what makes it exclusive.
type ProjectConsideringName struct {
	ProjectID uint      `json:"project_id" gorm:"primaryKey"`
	NameID    uint      `json:"name_id" gorm:"primaryKey;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name
func (ProjectConsideringName) TableName() string {
	return "project_considering_names"
}
