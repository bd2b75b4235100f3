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

import "github.com/CESNET/Nemea-Framework-sub000/field"

// Clone returns a deep copy of r, safe to mutate independently.
func (r *Record) Clone() *Record {
	buf := make([]byte, len(r.buf))
	copy(buf, r.buf)
	return &Record{tpl: r.tpl, buf: buf}
}

// CopyFields copies the value of every field present in both src's and
// dst's templates from src into dst, per spec.md §4.3's copy_fields.
// Variable fields are copied via SetVar so dst's layout stays valid;
// fixed fields are copied byte-for-byte. Fields absent from either
// template are skipped.
func CopyFields(dst *Record, src *Record) error {
	for _, id := range src.tpl.Fields() {
		if !dst.tpl.Has(id) {
			continue
		}
		typ, ok := src.tpl.Registry().TypeOf(id)
		if !ok {
			continue
		}
		if typ.IsVariable() {
			payload, err := src.GetVar(id)
			if err != nil {
				return err
			}
			if err := dst.SetVar(id, payload); err != nil {
				return err
			}
			continue
		}
		if err := copyFixed(dst, src, id, typ); err != nil {
			return err
		}
	}
	return nil
}

func copyFixed(dst, src *Record, id field.ID, typ field.Type) error {
	size := typ.Size()
	srcSlice, err := src.fixedSlice(id, size)
	if err != nil {
		return err
	}
	dstSlice, err := dst.fixedSlice(id, size)
	if err != nil {
		return err
	}
	copy(dstSlice, srcSlice)
	return nil
}
