package path

import (
	"errors"
	"fmt"
)

var ErrInvalidRef = errors.New("invalid data reference")

func invalidRef(ref any) error {
	return fmt.Errorf("%w: unsupported type %T", ErrInvalidRef, ref)
}
