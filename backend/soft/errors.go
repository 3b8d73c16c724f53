// SPDX-License-Identifier: EPL-2.0

package soft

import "errors"

var (
	ErrPoolOpen      = errors.New("voice pool already open")
	ErrInvalidFormat = errors.New("invalid PCM format")
	ErrUnknownBuffer = errors.New("unknown buffer")
)
