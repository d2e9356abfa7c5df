// Package registry implements the name pool, the project store and the
// linking engine that keeps the name<->project references consistent.
// It is the only writer of Name.Status and Name.AssignedProjectID; the
// handlers and any other caller go through the exported operations,
// each of which runs as a single database transaction.
package registry

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service exposes the name and project operations backed by a shared
// gorm database handle.
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

// New creates a registry service on top of the given database
func New(db *gorm.DB, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, log: log}
}
