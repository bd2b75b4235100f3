// Copyright 2015 Matthew Holt and The Caddy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mbuf implements MB: the container pool behind a fan-out
// output endpoint — an active container, a bounded ring of published
// containers, and empty/deferred free-container stacks — per spec.md
// §4.4. Every exported method assumes the caller already holds the
// owning endpoint's single mutex; Mbuf itself does no locking, matching
// spec.md §5's "one mutex per endpoint protects ... ring head/tail,
// empty/deferred stacks".
package mbuf

import "github.com/CESNET/Nemea-Framework-sub000/container"

// Mbuf is the fixed-size container pool for one output endpoint.
type Mbuf struct {
	containerCapacity int
	ringCapacity      int

	active *container.Container

	ring       []*container.Container
	head, tail int64

	empty    []*container.Container
	deferred []*container.Container
}

// New allocates an Mbuf whose total container-buffer pool size is
// ringCapacity (the configured active_containers) + maxClients + 1, per
// spec.md §5's resource policy. One buffer becomes the initial active
// container; ringCapacity buffers' worth of slots are reserved in the
// ring (initially empty); the rest seed the empty stack.
func New(ringCapacity, maxClients, containerCapacity int) *Mbuf {
	total := ringCapacity + maxClients + 1
	m := &Mbuf{
		containerCapacity: containerCapacity,
		ringCapacity:      ringCapacity,
		ring:              make([]*container.Container, ringCapacity),
	}
	bufs := make([]*container.Container, total)
	for i := range bufs {
		bufs[i] = container.New(containerCapacity)
	}
	m.active = bufs[0]
	m.empty = append(m.empty, bufs[1:]...)
	return m
}

// Active returns the container currently owned by the producer.
func (m *Mbuf) Active() *container.Container { return m.active }

// SetActive installs c as the new active container (used after
// get_empty successfully hands one to the producer).
func (m *Mbuf) SetActive(c *container.Container) { m.active = c }

// Head returns the ring's head index: the next index Publish will use.
func (m *Mbuf) Head() int64 { return m.head }

// Tail returns the ring's tail index: the oldest index still resident
// in the ring.
func (m *Mbuf) Tail() int64 { return m.tail }

// RingCapacity returns the number of containers the ring can hold at
// once (the configured active_containers value).
func (m *Mbuf) RingCapacity() int { return m.ringCapacity }

// At returns the container published at the given ring index. The
// caller must ensure tail <= index < head.
func (m *Mbuf) At(index int64) *container.Container {
	return m.ring[index%int64(m.ringCapacity)]
}

// GetEmptyTry attempts a single, non-blocking pop from the empty stack;
// only when the empty stack is empty does it first scan the deferred
// stack for any container whose refcount has dropped to zero and move
// those into empty, per spec.md §4.4's
// get_empty. Returns ok=false if no container is available and the
// caller (in blocking mode) must wait and retry.
func (m *Mbuf) GetEmptyTry() (c *container.Container, ok bool) {
	if len(m.empty) == 0 {
		m.reclaimDeferred()
	}
	if n := len(m.empty); n > 0 {
		c = m.empty[n-1]
		m.empty = m.empty[:n-1]
		return c, true
	}
	return nil, false
}

func (m *Mbuf) reclaimDeferred() {
	kept := m.deferred[:0]
	for _, c := range m.deferred {
		if c.Refcount() <= 0 {
			m.empty = append(m.empty, c)
		} else {
			kept = append(kept, c)
		}
	}
	m.deferred = kept
}

// PushEmpty pushes c directly onto the empty stack (used when a
// displaced container's refcount is already zero).
func (m *Mbuf) PushEmpty(c *container.Container) {
	m.empty = append(m.empty, c)
}

// PushDeferred pushes c onto the deferred stack (used when a displaced
// container still has outstanding non-blocking-mode readers).
func (m *Mbuf) PushDeferred(c *container.Container) {
	m.deferred = append(m.deferred, c)
}

// Publish pushes c into the ring at the current head and advances head.
// If the ring is already at capacity (head - tail == ringCapacity), the
// container occupying that slot is evicted and returned (ok=true);
// otherwise ok is false, per spec.md §4.4's finish-active step (c).
func (m *Mbuf) Publish(c *container.Container) (evicted *container.Container, ok bool) {
	idx := m.head % int64(m.ringCapacity)
	if m.head-m.tail == int64(m.ringCapacity) {
		evicted = m.ring[idx]
		ok = true
		m.tail++
	}
	m.ring[idx] = c
	m.head++
	return evicted, ok
}
