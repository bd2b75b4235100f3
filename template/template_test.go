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

package template

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CESNET/Nemea-Framework-sub000/field"
)

func newTestRegistry(t *testing.T) *field.Registry {
	t.Helper()
	r := field.NewRegistry()
	_, err := r.Define("TIME_FIRST", field.TypeTime)
	require.NoError(t, err)
	_, err = r.Define("SRC_IP", field.TypeIPAddr)
	require.NoError(t, err)
	_, err = r.Define("BYTES", field.TypeUint64)
	require.NoError(t, err)
	_, err = r.Define("SRC_PORT", field.TypeUint16)
	require.NoError(t, err)
	_, err = r.Define("PROTOCOL", field.TypeUint8)
	require.NoError(t, err)
	_, err = r.Define("TEXT", field.TypeString)
	require.NoError(t, err)
	_, err = r.Define("BPLIST", field.TypeUint32Array)
	require.NoError(t, err)
	return r
}

func TestCreateCanonicalOrder(t *testing.T) {
	r := newTestRegistry(t)
	tpl, err := Create(r, []string{"PROTOCOL", "SRC_IP", "TEXT", "TIME_FIRST", "BYTES", "SRC_PORT", "BPLIST"})
	require.NoError(t, err)

	names := make([]string, len(tpl.Fields()))
	for i, id := range tpl.Fields() {
		names[i] = r.Name(id)
	}
	// Fixed fields sorted by decreasing size, ties by name; variable
	// fields (TEXT string, BPLIST array) come last, ordered the same way
	// by their (negative) size.
	require.Equal(t, []string{"SRC_IP", "BYTES", "TIME_FIRST", "SRC_PORT", "PROTOCOL", "TEXT", "BPLIST"}, names)
}

func TestCreateDropsDuplicates(t *testing.T) {
	r := newTestRegistry(t)
	tpl, err := Create(r, []string{"SRC_IP", "SRC_IP", "BYTES"})
	require.NoError(t, err)
	require.Len(t, tpl.Fields(), 2)
}

func TestCreateUnknownFieldFails(t *testing.T) {
	r := newTestRegistry(t)
	_, err := Create(r, []string{"NOPE"})
	require.Error(t, err)
}

func TestOffsetsAndStaticSize(t *testing.T) {
	r := newTestRegistry(t)
	tpl, err := Create(r, []string{"SRC_IP", "PROTOCOL"})
	require.NoError(t, err)

	ipID, _ := r.LookupByName("SRC_IP")
	protoID, _ := r.LookupByName("PROTOCOL")

	ipOff, ok := tpl.Offset(ipID)
	require.True(t, ok)
	require.Equal(t, 0, ipOff)

	protoOff, ok := tpl.Offset(protoID)
	require.True(t, ok)
	require.Equal(t, 16, protoOff)

	require.Equal(t, 17, tpl.StaticSize())
	require.Equal(t, NoVariableFields, tpl.FirstVarIndex())
}

func TestVariableFieldsOccupyFourByteHeaderInFixedPart(t *testing.T) {
	r := newTestRegistry(t)
	tpl, err := Create(r, []string{"PROTOCOL", "TEXT"})
	require.NoError(t, err)

	require.Equal(t, 1, tpl.FirstVarIndex())
	require.Equal(t, 1+4, tpl.StaticSize())

	textID, _ := r.LookupByName("TEXT")
	off, ok := tpl.Offset(textID)
	require.True(t, ok)
	require.Equal(t, 1, off)
}

func TestMissingFieldOffsetIsAbsent(t *testing.T) {
	r := newTestRegistry(t)
	tpl, err := Create(r, []string{"PROTOCOL"})
	require.NoError(t, err)

	ipID, _ := r.LookupByName("SRC_IP")
	_, ok := tpl.Offset(ipID)
	require.False(t, ok)
	require.False(t, tpl.Has(ipID))
}

func TestCompareIdenticalTemplates(t *testing.T) {
	r := newTestRegistry(t)
	a, err := Create(r, []string{"SRC_IP", "BYTES"})
	require.NoError(t, err)
	b, err := Create(r, []string{"BYTES", "SRC_IP"})
	require.NoError(t, err)
	require.True(t, Compare(a, b))
}

func TestIsSubsetOf(t *testing.T) {
	r := newTestRegistry(t)
	small, err := Create(r, []string{"SRC_IP"})
	require.NoError(t, err)
	big, err := Create(r, []string{"SRC_IP", "BYTES"})
	require.NoError(t, err)
	require.True(t, IsSubsetOf(small, big))
	require.False(t, IsSubsetOf(big, small))
}

func TestExpandUnionsFields(t *testing.T) {
	r := newTestRegistry(t)
	base, err := Create(r, []string{"SRC_IP"})
	require.NoError(t, err)

	expanded, err := Expand(r, "BYTES,SRC_PORT", base)
	require.NoError(t, err)
	require.Len(t, expanded.Fields(), 3)
}

func TestDefineAndExpandDefinesNewFields(t *testing.T) {
	r := newTestRegistry(t)
	base, err := Create(r, []string{"SRC_IP"})
	require.NoError(t, err)

	expanded, err := DefineAndExpand(r, "uint32 NEW_FIELD", base)
	require.NoError(t, err)
	require.Len(t, expanded.Fields(), 2)

	_, err = r.LookupByName("NEW_FIELD")
	require.NoError(t, err)
}

func TestToSpecStringRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	tpl, err := Create(r, []string{"SRC_IP", "BYTES"})
	require.NoError(t, err)

	spec := ToSpecString(tpl)
	names, err := ParseNames(spec)
	require.NoError(t, err)

	again, err := Create(r, names)
	require.NoError(t, err)
	require.True(t, Compare(tpl, again))
}

func TestParseTypedSpec(t *testing.T) {
	types, names, err := ParseTypedSpec("uint32 A, string B,uint8  C")
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, names)
	require.Equal(t, []field.Type{field.TypeUint32, field.TypeString, field.TypeUint8}, types)
}

func TestParseTypedSpecMalformed(t *testing.T) {
	_, _, err := ParseTypedSpec("uint32")
	require.Error(t, err)
}

func TestDirectionMarker(t *testing.T) {
	r := newTestRegistry(t)
	tpl, err := Create(r, []string{"SRC_IP"})
	require.NoError(t, err)

	require.Equal(t, DirNone, tpl.Direction())
	tpl.SetDirection(DirOut, 2)
	require.Equal(t, DirOut, tpl.Direction())
	require.Equal(t, 2, tpl.OutputIndex())
}
