// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protospec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeToString(t *testing.T, root *Node, store *Store) string {
	t.Helper()
	var out strings.Builder
	sink := NewSink(writeCloserFunc(func(p []byte) (int, error) {
		return out.Write(p)
	}))
	require.NoError(t, Encode(root, store, sink))
	return out.String()
}

// TestEncodeOptionalTrailingTokenAbsent exercises the same spec as
// TestDecodeOptionalTrailingTokenAbsent in the reverse direction: a store
// that never got a value for the optional trailing literal must not cause
// that literal to be written out.
func TestEncodeOptionalTrailingTokenAbsent(t *testing.T) {
	root := optionalTrailingSpec(t)

	store := NewStore()
	store.AddInfo("first_word", StringValue("Hello"))

	got := encodeToString(t, root, store)
	assert.Equal(t, "Hello ", got)
}

// TestEncodeOptionalTrailingTokenPresent checks the complementary case: once
// the optional slot has a value, the literal is written as usual.
func TestEncodeOptionalTrailingTokenPresent(t *testing.T) {
	root := optionalTrailingSpec(t)

	store := NewStore()
	store.AddInfo("first_word", StringValue("Hello"))
	store.AddInfo("second_word", StringValue("World"))

	got := encodeToString(t, root, store)
	assert.Equal(t, "Hello World", got)
}

// TestEncodeOptionalSpaceAbsent covers an optional separator node (as
// opposed to an optional data node): the space itself is Named and marked
// Optional, so it is written only when "gap" has a value in the store.
func TestEncodeOptionalSpaceAbsent(t *testing.T) {
	b := NewBuilder().
		Named("first_word").ExpectString().
		Named("gap").DelimitedBySpace()
	b.Optional()
	b = b.Named("second_word").ExpectExactString("World")
	root := mustBuild(t, b)

	store := NewStore()
	store.AddInfo("first_word", StringValue("Hello"))
	store.AddInfo("second_word", StringValue("World"))

	got := encodeToString(t, root, store)
	assert.Equal(t, "HelloWorld", got)

	store.AddInfo("gap", StringValue(" "))
	got = encodeToString(t, root, store)
	assert.Equal(t, "Hello World", got)
}
