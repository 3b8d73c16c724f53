// SPDX-License-Identifier: EPL-2.0

package engine

// recency remembers the most recently triggered clips, one slot per
// trigger, overwriting the oldest. Its capacity equals the pool size.
type recency struct {
	slots []*Clip
	pos   int
}

func newRecency(capacity int) *recency {
	return &recency{
		slots: make([]*Clip, capacity),
		pos:   capacity - 1,
	}
}

func (r *recency) advance() int {
	r.pos = (r.pos + 1) % len(r.slots)
	return r.pos
}

// record stores c in the next slot without evicting whatever was there.
func (r *recency) record(c *Clip) {
	r.slots[r.advance()] = c
}

// claim moves to the next slot, stores c there and returns the clip it
// replaced.
func (r *recency) claim(c *Clip) *Clip {
	i := r.advance()
	prev := r.slots[i]
	r.slots[i] = c
	return prev
}

// forget clears every slot holding c.
func (r *recency) forget(c *Clip) int {
	n := 0
	for i, s := range r.slots {
		if s == c {
			r.slots[i] = nil
			n++
		}
	}
	return n
}

func (r *recency) contains(c *Clip) bool {
	for _, s := range r.slots {
		if s == c {
			return true
		}
	}
	return false
}
