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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "endpoint.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeTestConfig(t, `
variant = "tcp"
port = "8000"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "tcp", cfg.Variant)
	require.Equal(t, "8000", cfg.Port)

	addr := cfg.Address()
	require.Equal(t, defaultBufferSize, addr.BufferSize)
	require.Equal(t, defaultActiveContainers, addr.ActiveContainers)
	require.Equal(t, defaultMaxClients, addr.MaxClients)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeTestConfig(t, `
variant = "unix"
socket_id = "sub000"
buffer_size = 32768
max_clients = 8
active_containers = 2
blocking_mode = true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	addr := cfg.Address()
	require.Equal(t, "unix", addr.Variant)
	require.Equal(t, "sub000", addr.SocketID)
	require.Equal(t, 32768, addr.BufferSize)
	require.Equal(t, 8, addr.MaxClients)
	require.Equal(t, 2, addr.ActiveContainers)
	require.True(t, addr.Blocking)
}

func TestLoadConfigMissingFileFails(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadTLSConfigRequiresTable(t *testing.T) {
	cfg := Config{Variant: "tls", Port: "8443"}
	_, err := cfg.LoadTLSConfig()
	require.Error(t, err)
}
