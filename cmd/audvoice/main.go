// SPDX-License-Identifier: EPL-2.0

// Command audvoice plays, streams and renders audio files through the
// audvoice engine.
package main

func main() {
	Execute()
}
