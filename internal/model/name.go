package model

import (
	"time"
)

// NameStatus is the lifecycle status of a name in the pool
type NameStatus string

const (
	NameStatusAvailable   NameStatus = "available"
	NameStatusConsidering NameStatus = "considering"
	NameStatusAssigned    NameStatus = "assigned"
)

// Valid reports whether the status is one of the known name statuses
func (s NameStatus) Valid() bool {
	switch s {
	case NameStatusAvailable, NameStatusConsidering, NameStatusAssigned:
		return true
	}
	return false
}

// Name represents a reusable project name in the pool
type Name struct {
	ID                uint       `json:"id" gorm:"primarykey"`
	Text              string     `json:"text" gorm:"type:varchar(255);uniqueIndex;not null"`
	Status            NameStatus `json:"status" gorm:"type:varchar(20);index;not null;default:'available'"`
	AssignedProjectID *uint      `json:"assigned_project_id,omitempty" gorm:"index"`
	Notes             string     `json:"notes" gorm:"type:text"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
