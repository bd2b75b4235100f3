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

package mbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMbufSeedsPoolAndActive(t *testing.T) {
	m := New(2, 1, 64)
	require.NotNil(t, m.Active())
	c, ok := m.GetEmptyTry()
	require.True(t, ok)
	require.NotNil(t, c)
}

func TestPublishFillsRingWithoutEvictionUntilFull(t *testing.T) {
	m := New(2, 1, 64)
	c1, _ := m.GetEmptyTry()
	c2, _ := m.GetEmptyTry()

	_, evicted := m.Publish(c1)
	require.False(t, evicted)
	_, evicted = m.Publish(c2)
	require.False(t, evicted)

	require.Equal(t, int64(0), m.Tail())
	require.Equal(t, int64(2), m.Head())
}

func TestPublishEvictsOldestWhenRingFull(t *testing.T) {
	m := New(2, 1, 64)
	c1, _ := m.GetEmptyTry()
	c2, _ := m.GetEmptyTry()
	c3, _ := m.GetEmptyTry()

	m.Publish(c1)
	m.Publish(c2)
	evicted, ok := m.Publish(c3)
	require.True(t, ok)
	require.Same(t, c1, evicted)
	require.Equal(t, int64(1), m.Tail())
	require.Equal(t, int64(3), m.Head())
}

func TestGetEmptyTryReclaimsDeferredWithZeroRefcount(t *testing.T) {
	m := New(1, 0, 64)
	c, ok := m.GetEmptyTry()
	require.True(t, ok)

	c.Release() // drop refcount from 1 to 0
	m.PushDeferred(c)

	got, ok := m.GetEmptyTry()
	require.True(t, ok, "a deferred container whose refcount reached zero must be reclaimed into empty")
	require.Same(t, c, got)
}

func TestGetEmptyTryFailsWhenExhausted(t *testing.T) {
	m := New(1, 0, 64)
	c, _ := m.GetEmptyTry()
	m.PushDeferred(c) // refcount still 1, not reclaimable

	_, ok := m.GetEmptyTry()
	require.False(t, ok)
}

func TestAtReturnsPublishedContainer(t *testing.T) {
	m := New(2, 1, 64)
	c1, _ := m.GetEmptyTry()
	m.Publish(c1)
	require.Same(t, c1, m.At(0))
}
