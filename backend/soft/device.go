// SPDX-License-Identifier: EPL-2.0

package soft

import "sync/atomic"

// Device delivers a Mixer's output to an audio sink. Open is called when the
// voice pool is created and Close when it is destroyed.
type Device interface {
	Open(m *Mixer) error
	Close() error
}

// NullDevice discards everything. Nothing pulls from the mixer unless the
// caller reads from it, which makes it the device for offline rendering and
// for tests.
type NullDevice struct {
	opened atomic.Int32
	closed atomic.Int32
}

func (d *NullDevice) Open(*Mixer) error {
	d.opened.Add(1)
	return nil
}

func (d *NullDevice) Close() error {
	d.closed.Add(1)
	return nil
}

// Opened reports whether the device is currently open.
func (d *NullDevice) Opened() bool { return d.opened.Load() > d.closed.Load() }
