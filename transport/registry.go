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
	"context"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/CESNET/Nemea-Framework-sub000/errs"
)

// Variant is a registered transport kind (tcp, unix, tls): a pair of
// constructors for the listening side and the dialing side. Modeled on
// the teacher's module registry (modules.go's RegisterModule/GetModule),
// generalized here from a JSON-configurable plugin system to a small,
// fixed set of wire transports.
type Variant struct {
	Name   string
	Listen func(ctx context.Context, addr Address) (net.Listener, error)
	Dial   func(ctx context.Context, addr Address) (net.Conn, error)
}

var (
	variantsMu sync.RWMutex
	variants   = make(map[string]Variant)
)

// RegisterVariant registers a transport variant by name. Panics on a
// duplicate name, the same fail-fast policy as the teacher's
// RegisterModule for a duplicate module ID: variant registration happens
// at init() time, so a collision is a programmer error, not a runtime
// condition.
func RegisterVariant(v Variant) {
	variantsMu.Lock()
	defer variantsMu.Unlock()
	if _, ok := variants[v.Name]; ok {
		panic(fmt.Sprintf("transport: variant %q already registered", v.Name))
	}
	variants[v.Name] = v
}

// GetVariant looks up a registered transport variant by name.
func GetVariant(name string) (Variant, error) {
	variantsMu.RLock()
	defer variantsMu.RUnlock()
	v, ok := variants[name]
	if !ok {
		return Variant{}, errs.Errorf(errs.CallerContract, "transport.getVariant", "unknown transport variant %q", name)
	}
	return v, nil
}

func init() {
	RegisterVariant(Variant{
		Name: "tcp",
		Listen: func(_ context.Context, addr Address) (net.Listener, error) {
			ln, err := net.Listen("tcp", addr.NetworkAddr())
			if err != nil {
				return nil, errs.New(errs.Io, "transport.tcp.listen", err)
			}
			return ln, nil
		},
		Dial: func(ctx context.Context, addr Address) (net.Conn, error) {
			var d net.Dialer
			conn, err := d.DialContext(ctx, "tcp", addr.DialAddr())
			if err != nil {
				return nil, errs.New(errs.Io, "transport.tcp.dial", err)
			}
			return conn, nil
		},
	})

	RegisterVariant(Variant{
		Name: "unix",
		Listen: func(_ context.Context, addr Address) (net.Listener, error) {
			path := addr.LocalSocketPath()
			_ = os.Remove(path)
			ln, err := net.Listen("unix", path)
			if err != nil {
				return nil, errs.New(errs.Io, "transport.unix.listen", err)
			}
			return ln, nil
		},
		Dial: func(ctx context.Context, addr Address) (net.Conn, error) {
			var d net.Dialer
			conn, err := d.DialContext(ctx, "unix", addr.LocalSocketPath())
			if err != nil {
				return nil, errs.New(errs.Io, "transport.unix.dial", err)
			}
			return conn, nil
		},
	})
}
