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
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/CESNET/Nemea-Framework-sub000/errs"
)

// Config is the TOML-file shape of an endpoint's parameters: the same
// options the address-string grammar of spec.md §6 carries, plus an
// optional tls sub-table consulted only for the "tls" variant. The
// address-string form remains authoritative; this is an ambient
// convenience for process startup, not a second source of truth for
// any of the negotiation or wire behavior.
type Config struct {
	Variant          string `toml:"variant"`
	Port             string `toml:"port"`
	SocketID         string `toml:"socket_id"`
	BufferSize       int    `toml:"buffer_size"`
	ActiveContainers int    `toml:"active_containers"`
	MaxClients       int    `toml:"max_clients"`
	Blocking         bool   `toml:"blocking_mode"`

	TLS *TLSConfig `toml:"tls"`
}

// TLSConfig names the certificate material for the "tls" variant.
type TLSConfig struct {
	CertFile string `toml:"cert_file"`
	KeyFile  string `toml:"key_file"`
	CAFile   string `toml:"ca_file"`
}

// LoadConfig reads and parses an endpoint configuration file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errs.New(errs.CallerContract, "transport.loadConfig", err)
	}
	return cfg, nil
}

// Address converts the parsed Config into an Address with defaults
// filled in for any zero-valued numeric option, the same defaulting
// ParseAddress applies to an omitted option in the string grammar.
func (c Config) Address() Address {
	a := Address{
		Variant:          c.Variant,
		Port:             c.Port,
		SocketID:         c.SocketID,
		BufferSize:       c.BufferSize,
		ActiveContainers: c.ActiveContainers,
		MaxClients:       c.MaxClients,
		Blocking:         c.Blocking,
	}
	if a.BufferSize == 0 {
		a.BufferSize = defaultBufferSize
	}
	if a.ActiveContainers == 0 {
		a.ActiveContainers = defaultActiveContainers
	}
	if a.MaxClients == 0 {
		a.MaxClients = defaultMaxClients
	}
	return a
}

// LoadTLSConfig loads the certificate material named by the Config's tls
// sub-table into a *tls.Config suitable for RegisterTLSVariant. CAFile
// is optional; when present it is used for peer-certificate
// verification (spec.md's only TLS authentication requirement).
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLS == nil {
		return nil, errs.Errorf(errs.CallerContract, "transport.loadTLSConfig", "config has no [tls] table")
	}
	cert, err := tls.LoadX509KeyPair(c.TLS.CertFile, c.TLS.KeyFile)
	if err != nil {
		return nil, errs.New(errs.CallerContract, "transport.loadTLSConfig", err)
	}
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}}
	if c.TLS.CAFile != "" {
		pem, err := os.ReadFile(c.TLS.CAFile)
		if err != nil {
			return nil, errs.New(errs.CallerContract, "transport.loadTLSConfig", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errs.Errorf(errs.CallerContract, "transport.loadTLSConfig", "no certificates found in %q", c.TLS.CAFile)
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}
