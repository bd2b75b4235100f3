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
	"crypto/tls"
	"net"

	"github.com/CESNET/Nemea-Framework-sub000/errs"
)

// RegisterTLSVariant registers the "tls" transport variant, layering
// the same TE state machine on top of an encrypted socket: per
// spec.md §1, "the TLS flavor is in scope only for its differences
// from the plain-socket TE, all of which are confined to a replaced
// byte-transfer primitive." No authentication beyond peer-certificate
// verification is performed here, matching the explicit non-goal in
// spec.md §1.
func RegisterTLSVariant(cfg *tls.Config) {
	RegisterVariant(Variant{
		Name: "tls",
		Listen: func(_ context.Context, addr Address) (net.Listener, error) {
			ln, err := net.Listen("tcp", addr.NetworkAddr())
			if err != nil {
				return nil, errs.New(errs.Io, "transport.tls.listen", err)
			}
			return tls.NewListener(ln, cfg), nil
		},
		Dial: func(ctx context.Context, addr Address) (net.Conn, error) {
			d := tls.Dialer{Config: cfg}
			conn, err := d.DialContext(ctx, "tcp", addr.DialAddr())
			if err != nil {
				return nil, errs.New(errs.Io, "transport.tls.dial", err)
			}
			return conn, nil
		},
	})
}
