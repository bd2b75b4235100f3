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

package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAddressDefaults(t *testing.T) {
	addr, err := ParseAddress("tcp:8000")
	require.NoError(t, err)
	require.Equal(t, "tcp", addr.Variant)
	require.Equal(t, "8000", addr.Port)
	require.Equal(t, defaultBufferSize, addr.BufferSize)
	require.Equal(t, defaultActiveContainers, addr.ActiveContainers)
	require.Equal(t, defaultMaxClients, addr.MaxClients)
	require.False(t, addr.Blocking)
}

func TestParseAddressOptions(t *testing.T) {
	addr, err := ParseAddress("tcp:8000,buffer_size=32768,max_clients=32,active_containers=8,blocking_mode")
	require.NoError(t, err)
	require.Equal(t, 32768, addr.BufferSize)
	require.Equal(t, 32, addr.MaxClients)
	require.Equal(t, 8, addr.ActiveContainers)
	require.True(t, addr.Blocking)
}

func TestParseAddressUnixVariant(t *testing.T) {
	addr, err := ParseAddress("unix:sub000")
	require.NoError(t, err)
	require.Equal(t, "sub000", addr.SocketID)
	require.Equal(t, "/var/run/nemea-sub000/sub000.sock", addr.LocalSocketPath())
}

func TestParseAddressMissingColonFails(t *testing.T) {
	_, err := ParseAddress("tcp8000")
	require.Error(t, err)
}

func TestParseAddressUnknownOptionFails(t *testing.T) {
	_, err := ParseAddress("tcp:8000,bogus=1")
	require.Error(t, err)
}

func TestParseAddressMalformedOptionFails(t *testing.T) {
	_, err := ParseAddress("tcp:8000,buffer_size=notanumber")
	require.Error(t, err)
}

func TestNetworkAddr(t *testing.T) {
	addr, err := ParseAddress("tcp:9995")
	require.NoError(t, err)
	require.Equal(t, ":9995", addr.NetworkAddr())
	require.Equal(t, "127.0.0.1:9995", addr.DialAddr())
}
