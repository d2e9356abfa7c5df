package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors for the name store and linking engine. Handlers map
// these to HTTP statuses; none of them are retried by the core.
var (
	// ErrNotFound indicates a stale or unknown name/project id
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateName indicates a case-sensitive exact text collision
	ErrDuplicateName = errors.New("name text already exists")

	// ErrNameInUse indicates a delete attempt on a name that is still
	// assigned or under consideration
	ErrNameInUse = errors.New("name is in use")

	// ErrNameConflict indicates an attempted double-assignment of a name
	ErrNameConflict = errors.New("name is already assigned to another project")

	// ErrInvalidTransition indicates a name status transition outside the
	// transition table. Callers that respect the business rules should
	// never see this; treat it as an internal consistency failure.
	ErrInvalidTransition = errors.New("invalid name status transition")

	// ErrNotAnIdea indicates a promote attempt on a non-idea project
	ErrNotAnIdea = errors.New("project is not an idea")

	// ErrNameNotConsidered indicates the chosen name was not in the
	// project's considering set
	ErrNameNotConsidered = errors.New("name is not considered by this project")
)

// ValidationError is a business-rule violation on a project write. Rule
// numbers follow the project validation rules:
//  1. idea projects carry no name and no deployment metadata
//  2. non-idea projects carry a name and an empty considering set
//  3. repo_ref must look like owner/repo
//  4. deploy_url must be an absolute URL
type ValidationError struct {
	Rule    int
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Rule == 0 {
		return fmt.Sprintf("validation failed (field %q): %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed (rule %d, field %q): %s", e.Rule, e.Field, e.Message)
}

func validationErr(rule int, field, message string) error {
	return &ValidationError{Rule: rule, Field: field, Message: message}
}
