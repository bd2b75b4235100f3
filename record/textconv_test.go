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

package record

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CESNET/Nemea-Framework-sub000/field"
)

func TestEmitParseScalarRoundTrip(t *testing.T) {
	r := newRegistry(t)
	tpl := newTPL(t, r, "PROTOCOL", "SRC_PORT", "SRC_IP")
	rec := New(tpl)

	protoID, _ := r.LookupByName("PROTOCOL")
	portID, _ := r.LookupByName("SRC_PORT")
	ipID, _ := r.LookupByName("SRC_IP")

	require.NoError(t, rec.SetUint8(protoID, 6))
	require.NoError(t, rec.SetUint16(portID, 8080))
	require.NoError(t, rec.SetIPAddr(ipID, field.IPv4FromBytes(1, 2, 3, 4)))

	row, err := rec.EmitRow()
	require.NoError(t, err)

	rec2 := New(tpl)
	require.NoError(t, ParseRow(rec2, row))

	proto, err := rec2.GetUint8(protoID)
	require.NoError(t, err)
	require.Equal(t, uint8(6), proto)

	ip, err := rec2.GetIPAddr(ipID)
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", ip.String())
}

func TestEmitParseStringWithEmbeddedQuoteAndComma(t *testing.T) {
	r := newRegistry(t)
	tpl := newTPL(t, r, "TEXT", "PROTOCOL")
	rec := New(tpl)
	textID, _ := r.LookupByName("TEXT")
	protoID, _ := r.LookupByName("PROTOCOL")

	require.NoError(t, rec.SetVar(textID, []byte(`say "hi", please`)))
	require.NoError(t, rec.SetUint8(protoID, 1))

	row, err := rec.EmitRow()
	require.NoError(t, err)

	rec2 := New(tpl)
	require.NoError(t, ParseRow(rec2, row))

	got, err := rec2.GetVar(textID)
	require.NoError(t, err)
	require.Equal(t, `say "hi", please`, string(got))
}

func TestEmitParseArrayRoundTrip(t *testing.T) {
	r := newRegistry(t)
	tpl := newTPL(t, r, "BPLIST")
	rec := New(tpl)
	id, _ := r.LookupByName("BPLIST")

	s1, err := rec.ArrayAppendSlot(id)
	require.NoError(t, err)
	copy(s1, []byte{0, 0, 0, 10})
	s2, err := rec.ArrayAppendSlot(id)
	require.NoError(t, err)
	copy(s2, []byte{0, 0, 0, 20})

	text, err := rec.EmitField(id)
	require.NoError(t, err)
	require.Equal(t, "[10|20]", text)

	rec2 := New(tpl)
	require.NoError(t, rec2.ParseField(id, text))
	n, err := rec2.ArrayLen(id)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestEmitBytesAsHex(t *testing.T) {
	r := field.NewRegistry()
	_, err := r.Define("PAYLOAD", field.TypeBytes)
	require.NoError(t, err)
	tpl := newTPL(t, r, "PAYLOAD")
	rec := New(tpl)
	id, _ := r.LookupByName("PAYLOAD")

	require.NoError(t, rec.SetVar(id, []byte{0xDE, 0xAD, 0xBE, 0xEF}))
	text, err := rec.EmitField(id)
	require.NoError(t, err)
	require.Equal(t, "deadbeef", text)

	rec2 := New(tpl)
	require.NoError(t, rec2.ParseField(id, text))
	got, err := rec2.GetVar(id)
	require.NoError(t, err)
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, got)
}

func TestEmitTimeField(t *testing.T) {
	r := field.NewRegistry()
	_, err := r.Define("TIME_FIRST", field.TypeTime)
	require.NoError(t, err)
	tpl := newTPL(t, r, "TIME_FIRST")
	rec := New(tpl)
	id, _ := r.LookupByName("TIME_FIRST")

	ts := field.FromSecNsec(1530118374, 123456789)
	require.NoError(t, rec.SetTime(id, ts))

	text, err := rec.EmitField(id)
	require.NoError(t, err)

	rec2 := New(tpl)
	require.NoError(t, rec2.ParseField(id, text))
	got, err := rec2.GetTime(id)
	require.NoError(t, err)
	require.Equal(t, ts, got)
}
