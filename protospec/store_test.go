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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDuplicateKeyOverwritesValueButNotGroupOrder(t *testing.T) {
	s := NewStore()
	s.AddInfo("a", StringValue("1"))
	s.addGroupKey("headers", "a")
	s.AddInfo("b", StringValue("2"))
	s.addGroupKey("headers", "b")
	s.AddInfo("a", StringValue("3"))
	s.addGroupKey("headers", "a")

	keys, ok := s.GetKeysByGroup("headers")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, keys)

	v, ok := s.GetInfo("a")
	require.True(t, ok)
	assert.Equal(t, "3", v.Str)
}

func TestPreallocateStoreCountsNamedAndValueSlots(t *testing.T) {
	header, err := NewBuilder().
		KeySlot("headers").ExpectString().
		DelimitedBy(": ").
		ValueSlot("headers").ExpectString().
		DelimitedByNewline().
		Build()
	require.NoError(t, err)

	root, err := NewBuilder().
		Named("a").ExpectString().
		DelimitedBySpace().
		Named("b").ExpectString().
		DelimitedByNewline().
		RepeatMany(header, nil, true, "headers").
		Build()
	require.NoError(t, err)

	store := PreallocateStore(root)
	store.AddInfo("a", StringValue("x"))
	v, ok := store.GetInfo("a")
	require.True(t, ok)
	assert.Equal(t, "x", v.Str)
}
