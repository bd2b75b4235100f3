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

package container

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewContainerStartsCleared(t *testing.T) {
	c := New(128)
	require.Equal(t, int32(1), c.Refcount())
	require.Equal(t, HeaderSize, c.UsedBytes())
	require.Equal(t, 0, c.RecordCount())
	require.True(t, c.IsEmpty())
}

func TestHasCapacityAndHasSpace(t *testing.T) {
	c := New(30)
	require.True(t, c.HasCapacity(10))
	require.False(t, c.HasCapacity(30))
	require.True(t, c.HasSpace(16))
	require.False(t, c.HasSpace(17))
}

func TestInsertUpdatesUsedBytesAndCount(t *testing.T) {
	c := New(64)
	require.NoError(t, c.Insert([]byte("abc")))
	require.Equal(t, HeaderSize+2+3, c.UsedBytes())
	require.Equal(t, 1, c.RecordCount())
	require.False(t, c.IsEmpty())

	require.NoError(t, c.Insert([]byte("de")))
	require.Equal(t, 2, c.RecordCount())
}

func TestInsertOverflowFails(t *testing.T) {
	c := New(HeaderSize + 4)
	err := c.Insert([]byte("abcdefgh"))
	require.Error(t, err)
}

func TestAcquireRelease(t *testing.T) {
	c := New(32)
	require.Equal(t, int32(2), c.Acquire())
	require.Equal(t, int32(1), c.Release())
	require.Equal(t, int32(0), c.Release())
}

func TestWriteHeaderLayout(t *testing.T) {
	c := New(64)
	c.SetSequence(42)
	require.NoError(t, c.Insert([]byte("hello")))
	c.WriteHeader(3)

	b := c.Bytes()
	require.Equal(t, uint32(2+5), binary.BigEndian.Uint32(b[0:4]))
	require.Equal(t, uint64(42), binary.BigEndian.Uint64(b[4:12]))
	require.Equal(t, uint16(1), binary.BigEndian.Uint16(b[12:14]))
	require.Equal(t, 3, c.RingIndex())
}

func TestClearResetsState(t *testing.T) {
	c := New(64)
	require.NoError(t, c.Insert([]byte("x")))
	c.Acquire()
	c.Clear()

	require.Equal(t, int32(1), c.Refcount())
	require.Equal(t, HeaderSize, c.UsedBytes())
	require.Equal(t, 0, c.RecordCount())
}
