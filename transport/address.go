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
	"fmt"
	"strconv"
	"strings"

	"github.com/CESNET/Nemea-Framework-sub000/errs"
)

// defaultBufferSize, defaultActiveContainers and defaultMaxClients are
// applied when an endpoint address string omits the corresponding option.
const (
	defaultBufferSize       = 100000
	defaultActiveContainers = 4
	defaultMaxClients       = 64
)

// Address is the parsed form of an endpoint parameter string, per
// spec.md §6: "An endpoint is created from a parameter string whose
// leading token identifies the transport variant and whose remaining
// tokens are comma-separated options: port, buffer_size=N,
// active_containers=N, max_clients=N, blocking_mode."
type Address struct {
	Variant string

	Port             string // network variants
	SocketID         string // local variant's filesystem-path parameter
	BufferSize       int
	ActiveContainers int
	MaxClients       int
	Blocking         bool
}

// ParseAddress parses an endpoint parameter string of the form
// "<variant>:<port-or-id>[,opt=val|,flag]*", e.g.
// "tcp:8000,buffer_size=32768,max_clients=32,blocking_mode", into an
// Address with defaults filled in.
func ParseAddress(spec string) (Address, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Address{}, errs.Errorf(errs.CallerContract, "transport.parseAddress", "empty endpoint address")
	}

	parts := strings.Split(spec, ",")
	head := strings.TrimSpace(parts[0])
	variant, portOrID, ok := strings.Cut(head, ":")
	if !ok {
		return Address{}, errs.Errorf(errs.CallerContract, "transport.parseAddress", "missing ':' separating variant from address in %q", spec)
	}

	addr := Address{
		Variant:          strings.TrimSpace(variant),
		BufferSize:       defaultBufferSize,
		ActiveContainers: defaultActiveContainers,
		MaxClients:       defaultMaxClients,
	}
	switch addr.Variant {
	case "unix":
		addr.SocketID = strings.TrimSpace(portOrID)
	default:
		addr.Port = strings.TrimSpace(portOrID)
	}

	for _, tok := range parts[1:] {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if tok == "blocking_mode" {
			addr.Blocking = true
			continue
		}
		key, val, ok := strings.Cut(tok, "=")
		if !ok {
			return Address{}, errs.Errorf(errs.CallerContract, "transport.parseAddress", "malformed option %q in %q", tok, spec)
		}
		key = strings.TrimSpace(key)
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return Address{}, errs.Errorf(errs.CallerContract, "transport.parseAddress", "option %q: %v", tok, err)
		}
		switch key {
		case "buffer_size":
			addr.BufferSize = n
		case "active_containers":
			addr.ActiveContainers = n
		case "max_clients":
			addr.MaxClients = n
		default:
			return Address{}, errs.Errorf(errs.CallerContract, "transport.parseAddress", "unknown option %q in %q", key, spec)
		}
	}
	return addr, nil
}

// NetworkAddr renders the bind address used by net.Listen for network
// transport variants: an empty host binds every local interface.
func (a Address) NetworkAddr() string {
	return fmt.Sprintf(":%s", a.Port)
}

// DialAddr renders the host:port a network transport variant's Dial
// constructor connects to. Unlike NetworkAddr, the host is explicit:
// an empty host is a valid bind address but not a valid peer to dial.
func (a Address) DialAddr() string {
	return fmt.Sprintf("127.0.0.1:%s", a.Port)
}

// localSocketPathTemplate is the conventional filesystem path template
// for local sockets, parameterized by the address's SocketID, per
// spec.md §6 ("Local sockets use a conventional filesystem path template
// parameterized by a string id").
const localSocketPathTemplate = "/var/run/nemea-sub000/%s.sock"

// LocalSocketPath renders the filesystem path for a unix-variant
// Address's listening socket.
func (a Address) LocalSocketPath() string {
	return fmt.Sprintf(localSocketPathTemplate, a.SocketID)
}
