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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltinVariantsRegistered(t *testing.T) {
	_, err := GetVariant("tcp")
	require.NoError(t, err)
	_, err = GetVariant("unix")
	require.NoError(t, err)
}

func TestGetVariantUnknown(t *testing.T) {
	_, err := GetVariant("carrier-pigeon")
	require.Error(t, err)
}

func TestRegisterVariantDuplicatePanics(t *testing.T) {
	require.Panics(t, func() {
		RegisterVariant(Variant{Name: "tcp"})
	})
}
