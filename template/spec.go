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
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CESNET/Nemea-Framework-sub000/errs"
	"github.com/CESNET/Nemea-Framework-sub000/field"
)

// ParseNames splits a comma-separated field-name spec string (the
// untyped form accepted by Expand, e.g. "SRC_IP,DST_IP,BYTES") into
// trimmed, non-empty field names.
func ParseNames(spec string) ([]string, error) {
	parts := strings.Split(spec, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, errs.Errorf(errs.CallerContract, "template.parseNames", "empty field spec")
	}
	return names, nil
}

// ToSpecString renders t's fields as a comma-separated name list in
// canonical order, the inverse of ParseNames plus a registry lookup.
func ToSpecString(t *Template) string {
	var b strings.Builder
	for i, id := range t.ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.registry.Name(id))
	}
	return b.String()
}

// ToTypedSpecString renders t's fields as "type name" pairs, separated by
// sep, in canonical order — the form used by DefineSet/DefineAndExpand
// when the receiver may not yet know every field.
func ToTypedSpecString(t *Template, sep string) string {
	var b strings.Builder
	for i, id := range t.ids {
		if i > 0 {
			b.WriteString(sep)
		}
		typ, _ := t.registry.TypeOf(id)
		b.WriteString(typ.String())
		b.WriteByte(' ')
		b.WriteString(t.registry.Name(id))
	}
	return b.String()
}

// ParseTypedSpec parses a "type name, type name, ..." spec string into
// parallel slices of types and names, per spec.md §4.1's field-spec
// grammar.
func ParseTypedSpec(spec string) (types []field.Type, names []string, err error) {
	parts := strings.Split(spec, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		fields := strings.Fields(p)
		if len(fields) != 2 {
			return nil, nil, errs.Errorf(errs.CallerContract, "template.parseTypedSpec", "malformed field spec %q", p)
		}
		typ, perr := field.ParseType(fields[0])
		if perr != nil {
			return nil, nil, errs.New(errs.CallerContract, "template.parseTypedSpec", perr)
		}
		types = append(types, typ)
		names = append(names, fields[1])
	}
	if len(names) == 0 {
		return nil, nil, errs.Errorf(errs.CallerContract, "template.parseTypedSpec", "empty field spec")
	}
	return types, names, nil
}

// fieldDump is one field's entry in a Template's debug dump.
type fieldDump struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Offset int    `yaml:"offset,omitempty"`
	Var    bool   `yaml:"variable,omitempty"`
}

// layoutDump is the full shape rendered by DumpYAML.
type layoutDump struct {
	Fields     []fieldDump `yaml:"fields"`
	StaticSize int         `yaml:"static_size"`
}

// DumpYAML renders t's canonical field order and record layout as YAML,
// for operators inspecting a running endpoint's negotiated template
// (logged at debug level, never parsed back in).
func DumpYAML(t *Template) (string, error) {
	dump := layoutDump{StaticSize: t.staticSize}
	for _, id := range t.ids {
		typ, _ := t.registry.TypeOf(id)
		off, _ := t.Offset(id)
		dump.Fields = append(dump.Fields, fieldDump{
			Name:   t.registry.Name(id),
			Type:   typ.String(),
			Offset: off,
			Var:    typ.IsVariable(),
		})
	}
	out, err := yaml.Marshal(dump)
	if err != nil {
		return "", errs.New(errs.Other, "template.dumpYAML", err)
	}
	return string(out), nil
}
