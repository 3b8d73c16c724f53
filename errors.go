// SPDX-License-Identifier: EPL-2.0

package audvoice

import "errors"

var ErrUnsupportedChannels = errors.New("only mono and stereo audio can be played")
