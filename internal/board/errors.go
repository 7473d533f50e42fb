package board

import (
	"errors"
	"fmt"

	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/pkg/cerr"
)

var (
	ErrAuthorizationDenied    = errors.New("authorization denied")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrInconsistentSnapshot   = errors.New("inconsistent snapshot")
	ErrUnknownTask            = errors.New("unknown task")
	ErrNoDateSelected         = errors.New("no service date selected")
)

func newAuthorizationDenied(role catalog.RoleID, task catalog.TaskDefinition) error {
	return cerr.NewError(cerr.PermissionDenied,
		fmt.Sprintf("role %q may not act on %s", role, task.ID),
		ErrAuthorizationDenied)
}

func newUnknownTask(id string) error {
	return cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown task %q", id), ErrUnknownTask)
}

// newPersistenceError keeps the collaborator error reachable for errors.Is.
// Coded server rejections keep their code; anything else is Unavailable.
func newPersistenceError(op string, err error) error {
	code := cerr.Unavailable
	if c := cerr.CodeOf(err); c != cerr.Unknown && c != cerr.OK {
		code = c
	}
	return cerr.NewError(code, op+" failed", fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err))
}
