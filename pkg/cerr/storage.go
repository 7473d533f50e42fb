package cerr

import (
	"errors"
	"fmt"

	"github.com/kazz187/serviceboard/pkg/storage"
)

func wrapStorage(op, target string, err error) error {
	if op != "write" && errors.Is(err, storage.ErrNotFound) {
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to %s %s: %w", op, target, err))
}

// WrapStorageReadError maps a missing document to NotFound and anything else
// to Internal.
func WrapStorageReadError(target string, err error) error {
	return wrapStorage("read", target, err)
}

func WrapStorageWriteError(target string, err error) error {
	return wrapStorage("write", target, err)
}

func WrapStorageDeleteError(target string, err error) error {
	return wrapStorage("delete", target, err)
}
