package registry_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/phrazzld/powder/internal/model"
	"github.com/phrazzld/powder/internal/registry"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestService opens an in-memory database with the full schema so
// the real transaction paths run in tests.
func newTestService(t *testing.T) (*registry.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every session on the same in-memory DB
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Name{},
		&model.Project{},
		&model.ProjectConsideringName{},
	))

	return registry.New(db, nil), db
}

func mustCreateName(t *testing.T, svc *registry.Service, text string) uint {
	t.Helper()
	id, err := svc.CreateName(text, "")
	require.NoError(t, err)
	return id
}

func getName(t *testing.T, svc *registry.Service, id uint) *model.Name {
	t.Helper()
	name, err := svc.GetName(id)
	require.NoError(t, err)
	return name
}

func mustCreateIdea(t *testing.T, svc *registry.Service, considering ...uint) uint {
	t.Helper()
	id, err := svc.CreateProject(registry.ProjectInput{
		Status:             model.ProjectStatusIdea,
		ConsideringNameIDs: considering,
	})
	require.NoError(t, err)
	return id
}

func mustCreateActive(t *testing.T, svc *registry.Service, nameID uint) uint {
	t.Helper()
	id, err := svc.CreateProject(registry.ProjectInput{
		Status: model.ProjectStatusActive,
		NameID: &nameID,
	})
	require.NoError(t, err)
	return id
}
