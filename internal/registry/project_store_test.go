package registry_test

import (
	"testing"

	"github.com/phrazzld/powder/internal/model"
	"github.com/phrazzld/powder/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func statusPtr(s model.ProjectStatus) *model.ProjectStatus { return &s }

func TestCreateProjectValidation(t *testing.T) {
	svc, _ := newTestService(t)
	sous := mustCreateName(t, svc, "sous")

	cases := []struct {
		name  string
		input registry.ProjectInput
		rule  int
		field string
	}{
		{
			name: "idea with an assigned name",
			input: registry.ProjectInput{
				Status: model.ProjectStatusIdea,
				NameID: &sous,
			},
			rule:  1,
			field: "name_id",
		},
		{
			name: "idea with repo metadata",
			input: registry.ProjectInput{
				Status:  model.ProjectStatusIdea,
				RepoRef: "phrazzld/powder",
			},
			rule:  1,
			field: "repo_ref",
		},
		{
			name: "idea with deploy metadata",
			input: registry.ProjectInput{
				Status:    model.ProjectStatusIdea,
				DeployURL: "https://powder.dev",
			},
			rule:  1,
			field: "deploy_url",
		},
		{
			name: "active without a name",
			input: registry.ProjectInput{
				Status: model.ProjectStatusActive,
			},
			rule:  2,
			field: "name_id",
		},
		{
			name: "active with considering names",
			input: registry.ProjectInput{
				Status:             model.ProjectStatusActive,
				NameID:             &sous,
				ConsideringNameIDs: []uint{sous},
			},
			rule:  2,
			field: "considering_name_ids",
		},
		{
			name: "malformed repo ref",
			input: registry.ProjectInput{
				Status:  model.ProjectStatusActive,
				NameID:  &sous,
				RepoRef: "not a repo ref",
			},
			rule:  3,
			field: "repo_ref",
		},
		{
			name: "relative deploy url",
			input: registry.ProjectInput{
				Status:    model.ProjectStatusActive,
				NameID:    &sous,
				DeployURL: "/dashboard",
			},
			rule:  4,
			field: "deploy_url",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProject(tc.input)
			var vErr *registry.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.rule, vErr.Rule)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}

	t.Run("unknown status", func(t *testing.T) {
		_, err := svc.CreateProject(registry.ProjectInput{Status: "shipped"})
		var vErr *registry.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "status", vErr.Field)
	})

	t.Run("valid active project with metadata", func(t *testing.T) {
		id, err := svc.CreateProject(registry.ProjectInput{
			Status:      model.ProjectStatusActive,
			NameID:      &sous,
			Description: "cooking assistant",
			RepoRef:     "phrazzld/sous",
			DeployURL:   "https://sous.example.com",
			Tags:        []string{"go", "cooking"},
		})
		require.NoError(t, err)

		view, err := svc.GetProject(id)
		require.NoError(t, err)
		assert.Equal(t, "sous", view.Name)
		assert.Equal(t, []string{"go", "cooking"}, view.Tags)
		assert.False(t, view.CreatedAt.IsZero())
		assert.False(t, view.UpdatedAt.IsZero())
	})
}

func TestUpdateProject(t *testing.T) {
	t.Run("status change to idea requires an explicit name clear", func(t *testing.T) {
		svc, _ := newTestService(t)
		sous := mustCreateName(t, svc, "sous")
		projectID := mustCreateActive(t, svc, sous)

		// Status alone fails: the merged record still carries the name
		err := svc.UpdateProject(projectID, registry.ProjectUpdate{
			Status: statusPtr(model.ProjectStatusIdea),
		})
		var vErr *registry.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, 1, vErr.Rule)

		// Nothing changed
		assert.Equal(t, model.NameStatusAssigned, getName(t, svc, sous).Status)
		view, getErr := svc.GetProject(projectID)
		require.NoError(t, getErr)
		assert.Equal(t, model.ProjectStatusActive, view.Status)

		// With the explicit clear the transition validates and the name
		// is released
		require.NoError(t, svc.UpdateProject(projectID, registry.ProjectUpdate{
			Status:    statusPtr(model.ProjectStatusIdea),
			ClearName: true,
		}))
		assert.Equal(t, model.NameStatusAvailable, getName(t, svc, sous).Status)
	})

	t.Run("swapping the assigned name releases the old one", func(t *testing.T) {
		svc, _ := newTestService(t)
		oldName := mustCreateName(t, svc, "old")
		newName := mustCreateName(t, svc, "new")
		projectID := mustCreateActive(t, svc, oldName)

		require.NoError(t, svc.UpdateProject(projectID, registry.ProjectUpdate{
			NameID: &newName,
		}))

		assert.Equal(t, model.NameStatusAvailable, getName(t, svc, oldName).Status)
		assigned := getName(t, svc, newName)
		assert.Equal(t, model.NameStatusAssigned, assigned.Status)
		require.NotNil(t, assigned.AssignedProjectID)
		assert.Equal(t, projectID, *assigned.AssignedProjectID)
	})

	t.Run("swapping to a taken name fails atomically", func(t *testing.T) {
		svc, _ := newTestService(t)
		mine := mustCreateName(t, svc, "mine")
		taken := mustCreateName(t, svc, "taken")
		projectID := mustCreateActive(t, svc, mine)
		otherID := mustCreateActive(t, svc, taken)

		err := svc.UpdateProject(projectID, registry.ProjectUpdate{
			NameID: &taken,
		})
		require.ErrorIs(t, err, registry.ErrNameConflict)

		// The failed update must not have released the project's own name
		stillMine := getName(t, svc, mine)
		assert.Equal(t, model.NameStatusAssigned, stillMine.Status)
		require.NotNil(t, stillMine.AssignedProjectID)
		assert.Equal(t, projectID, *stillMine.AssignedProjectID)

		stillTaken := getName(t, svc, taken)
		require.NotNil(t, stillTaken.AssignedProjectID)
		assert.Equal(t, otherID, *stillTaken.AssignedProjectID)
	})

	t.Run("considering set delta is reconciled", func(t *testing.T) {
		svc, _ := newTestService(t)
		a := mustCreateName(t, svc, "a")
		b := mustCreateName(t, svc, "b")
		c := mustCreateName(t, svc, "c")
		projectID := mustCreateIdea(t, svc, a, b)

		require.NoError(t, svc.UpdateProject(projectID, registry.ProjectUpdate{
			ConsideringNameIDs: &[]uint{b, c},
		}))

		assert.Equal(t, model.NameStatusAvailable, getName(t, svc, a).Status)
		assert.Equal(t, model.NameStatusConsidering, getName(t, svc, b).Status)
		assert.Equal(t, model.NameStatusConsidering, getName(t, svc, c).Status)

		view, err := svc.GetProject(projectID)
		require.NoError(t, err)
		require.Len(t, view.ConsideringNames, 2)
	})

	t.Run("demoting to idea can move the name into the considering set", func(t *testing.T) {
		svc, _ := newTestService(t)
		sous := mustCreateName(t, svc, "sous")
		projectID := mustCreateActive(t, svc, sous)

		// Release and re-add in the same update: the release runs first,
		// so the name never conflicts with itself
		require.NoError(t, svc.UpdateProject(projectID, registry.ProjectUpdate{
			Status:             statusPtr(model.ProjectStatusIdea),
			ClearName:          true,
			ConsideringNameIDs: &[]uint{sous},
		}))

		name := getName(t, svc, sous)
		assert.Equal(t, model.NameStatusConsidering, name.Status)
		assert.Nil(t, name.AssignedProjectID)
	})

	t.Run("metadata updates bump updated_at", func(t *testing.T) {
		svc, _ := newTestService(t)
		sous := mustCreateName(t, svc, "sous")
		projectID := mustCreateActive(t, svc, sous)

		before, err := svc.GetProject(projectID)
		require.NoError(t, err)

		require.NoError(t, svc.UpdateProject(projectID, registry.ProjectUpdate{
			Description: strPtr("now with a description"),
			RepoRef:     strPtr("phrazzld/sous"),
			DeployURL:   strPtr("https://sous.example.com"),
		}))

		after, err := svc.GetProject(projectID)
		require.NoError(t, err)
		assert.Equal(t, "now with a description", after.Description)
		assert.Equal(t, "phrazzld/sous", after.RepoRef)
		assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))
	})

	t.Run("unknown project fails", func(t *testing.T) {
		svc, _ := newTestService(t)
		err := svc.UpdateProject(9999, registry.ProjectUpdate{
			Description: strPtr("nope"),
		})
		require.ErrorIs(t, err, registry.ErrNotFound)
	})
}

func TestStatusTransitionsKeepAssignment(t *testing.T) {
	svc, _ := newTestService(t)
	sous := mustCreateName(t, svc, "sous")
	projectID := mustCreateActive(t, svc, sous)

	// active -> paused -> archived, name stays assigned throughout
	for _, status := range []model.ProjectStatus{
		model.ProjectStatusPaused,
		model.ProjectStatusArchived,
	} {
		require.NoError(t, svc.UpdateProject(projectID, registry.ProjectUpdate{
			Status: statusPtr(status),
		}))
		name := getName(t, svc, sous)
		assert.Equal(t, model.NameStatusAssigned, name.Status)
		require.NotNil(t, name.AssignedProjectID)
		assert.Equal(t, projectID, *name.AssignedProjectID)
	}
}
