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

package field

import (
	"embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed seed/default_fields.toml
var defaultSeedFS embed.FS

// seedDocument is the TOML shape of a field seed file (either the
// embedded default or a caller-supplied one via LoadSeedFile).
type seedDocument struct {
	Field []seedField `toml:"field"`
}

type seedField struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// NewDefaultRegistry returns a Registry seeded from the embedded
// default_fields.toml, mirroring spec.md §3's "the registry starts
// seeded from a static list the build process supplies" — here the build
// process is Go's //go:embed instead of the original's generated C table.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	data, err := defaultSeedFS.ReadFile("seed/default_fields.toml")
	if err != nil {
		return nil, fmt.Errorf("field: reading embedded seed: %w", err)
	}
	if err := seedFromBytes(r, data, true); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadSeedFile defines every field in a caller-supplied TOML seed file
// (same [[field]] shape as the embedded default) into r, marking each as
// statically seeded. Grounded in the teacher's layered-config philosophy:
// the embedded seed is the default, a file on disk can extend it.
func LoadSeedFile(r *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("field: reading seed file %s: %w", path, err)
	}
	return seedFromBytes(r, data, true)
}

func seedFromBytes(r *Registry, data []byte, static bool) error {
	var doc seedDocument
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return fmt.Errorf("field: parsing seed TOML: %w", err)
	}
	for _, f := range doc.Field {
		typ, err := ParseType(f.Type)
		if err != nil {
			return fmt.Errorf("field: seed entry %q: %w", f.Name, err)
		}
		id, err := r.Define(f.Name, typ)
		if err != nil {
			return fmt.Errorf("field: seed entry %q: %w", f.Name, err)
		}
		if static {
			r.markStaticSeed(id)
		}
	}
	return nil
}
