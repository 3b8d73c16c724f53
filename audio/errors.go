// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")
	ErrUnknownFormat  = errors.New("unknown audio format")
)

// UnknownFormatError is returned when no decoder is registered for a format.
// It matches ErrUnknownFormat with errors.Is.
type UnknownFormatError struct {
	Format string
}

func (e *UnknownFormatError) Error() string {
	if e.Format == "" {
		return ErrUnknownFormat.Error() + ": no file extension"
	}
	return fmt.Sprintf("%s: %q", ErrUnknownFormat, e.Format)
}

func (e *UnknownFormatError) Is(target error) bool {
	return target == ErrUnknownFormat
}
