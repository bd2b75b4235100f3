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
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CESNET/Nemea-Framework-sub000/field"
	"github.com/CESNET/Nemea-Framework-sub000/template"
)

func newTestRegistryForNegotiate(t *testing.T) *field.Registry {
	t.Helper()
	reg := field.NewRegistry()
	_, err := reg.Define("A", field.TypeUint32)
	require.NoError(t, err)
	_, err = reg.Define("B", field.TypeUint32)
	require.NoError(t, err)
	_, err = reg.Define("C", field.TypeString)
	require.NoError(t, err)
	return reg
}

func TestWriteReadHelloRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHello(&buf, DataTypeSchema, "uint32 A,string C"))
	dt, spec, err := ReadHello(&buf)
	require.NoError(t, err)
	require.Equal(t, DataTypeSchema, dt)
	require.Equal(t, "uint32 A,string C", spec)
}

func TestWriteReadHelloRaw(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHello(&buf, DataTypeRaw, ""))
	dt, spec, err := ReadHello(&buf)
	require.NoError(t, err)
	require.Equal(t, DataTypeRaw, dt)
	require.Empty(t, spec)
}

// Scenario 4: sender offers A,B,C; receiver requires A,C. Negotiation
// must report ReceiverSubset and install the sender's (superset)
// template so the receiver can skip B at record boundaries.
func TestNegotiateReceiverSubset(t *testing.T) {
	reg := newTestRegistryForNegotiate(t)
	receiverTpl, err := template.Create(reg, []string{"A", "C"})
	require.NoError(t, err)

	outcome, tpl, err := Negotiate(reg, receiverTpl, DataTypeSchema, "uint32 A,uint32 B,string C")
	require.NoError(t, err)
	require.Equal(t, ReceiverSubset, outcome)
	require.True(t, tpl.Has(mustID(t, reg, "B")))
}

// Scenario 5: sender offers uint32 A; receiver requires uint64 A. Type
// disagreement on a shared name must yield FmtMismatch.
func TestNegotiateTypeMismatch(t *testing.T) {
	reg := field.NewRegistry()
	_, err := reg.Define("A", field.TypeUint64)
	require.NoError(t, err)
	receiverTpl, err := template.Create(reg, []string{"A"})
	require.NoError(t, err)

	outcome, _, err := Negotiate(reg, receiverTpl, DataTypeSchema, "uint32 A")
	require.NoError(t, err)
	require.Equal(t, FmtMismatch, outcome)
}

func TestNegotiateExactMatch(t *testing.T) {
	reg := newTestRegistryForNegotiate(t)
	tpl, err := template.Create(reg, []string{"A", "C"})
	require.NoError(t, err)

	outcome, got, err := Negotiate(reg, tpl, DataTypeSchema, "uint32 A,string C")
	require.NoError(t, err)
	require.Equal(t, Ok, outcome)
	require.True(t, template.Compare(tpl, got))
}

func TestNegotiateSenderSubset(t *testing.T) {
	reg := newTestRegistryForNegotiate(t)
	superset, err := template.Create(reg, []string{"A", "B", "C"})
	require.NoError(t, err)

	outcome, got, err := Negotiate(reg, superset, DataTypeSchema, "uint32 A,string C")
	require.NoError(t, err)
	require.Equal(t, SenderSubset, outcome)
	require.True(t, template.Compare(superset, got))
}

func TestNegotiateRawAgainstSchemaRequirement(t *testing.T) {
	reg := newTestRegistryForNegotiate(t)
	tpl, err := template.Create(reg, []string{"A"})
	require.NoError(t, err)

	outcome, _, err := Negotiate(reg, tpl, DataTypeRaw, "")
	require.NoError(t, err)
	require.Equal(t, FmtUnknown, outcome)
}

func mustID(t *testing.T, reg *field.Registry, name string) field.ID {
	t.Helper()
	id, err := reg.LookupByName(name)
	require.NoError(t, err)
	return id
}
