package cerr

import (
	"errors"
	"fmt"

	"github.com/twominute/twominute/pkg/storage"
)

// FromStorage maps a storage failure during op ("read", "write", "delete") on
// target. A missing object is NotFound; anything else is Internal with the
// cause kept for the log.
func FromStorage(op, target string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewError(NotFound, target+" not found", err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to %s %s: %w", op, target, err))
}
