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

func TestBuilderRejectsAnyStringWithoutTerminator(t *testing.T) {
	_, err := NewBuilder().ExpectString().Build()
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, InvalidPlaceHolderTypeFound, perr.Kind)
}

func TestBuilderRejectsAnyStringFollowedByComposite(t *testing.T) {
	inner, err := NewBuilder().ExpectExactString("x").Build()
	require.NoError(t, err)

	_, err = NewBuilder().ExpectString().ExpectComposite(inner).Build()
	require.Error(t, err)
}

func TestBuilderAcceptsAnyStringFollowedByOneOf(t *testing.T) {
	_, err := NewBuilder().
		ExpectString().
		ExpectOneOfString(" ", "\t").
		Build()
	require.NoError(t, err)
}

func TestBuilderRepeatManyRequiresCompositeChild(t *testing.T) {
	notComposite := &Node{Kind: KindAnyString}
	_, err := NewBuilder().RepeatMany(notComposite, nil, true, "g").Build()
	require.Error(t, err)
}

func TestBuilderOptionalTagsLastNode(t *testing.T) {
	root, err := NewBuilder().
		ExpectExactString("a").
		Optional().
		Build()
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	assert.True(t, root.Children[0].Optional)
}
