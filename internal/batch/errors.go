package batch

import (
	"errors"
	"fmt"

	"pixbatch/internal/services"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("batch controller closed")
	// ErrRunInProgress is returned when Run is called while a run is active.
	ErrRunInProgress = errors.New("conversion run already in progress")
)

// NotFoundError reports an operation on an item that is not in the batch.
type NotFoundError struct {
	ID ItemID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item %q not found", string(e.ID))
}

func (e *NotFoundError) Unwrap() error {
	return services.ErrNotFound
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
