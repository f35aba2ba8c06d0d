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
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderMarkUnmarkIsNoop(t *testing.T) {
	r := NewReader(FromIOReader(strings.NewReader("hello world")))
	ctx := context.Background()

	before := r.Offset()
	m := r.Mark()
	_, err := r.ReadLiteral(ctx, []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, r.Unmark(m))

	// unmark does not move the cursor back; only reset does
	assert.Greater(t, r.Offset(), before)
}

func TestReaderMarkResetRewinds(t *testing.T) {
	r := NewReader(FromIOReader(strings.NewReader("hello world")))
	ctx := context.Background()

	before := r.Offset()
	m := r.Mark()
	_, err := r.ReadLiteral(ctx, []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, r.Reset(m))

	assert.Equal(t, before, r.Offset())

	b, err := r.ReadLiteral(ctx, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestReaderMarkLIFOViolation(t *testing.T) {
	r := NewReader(FromIOReader(strings.NewReader("abcdef")))

	outer := r.Mark()
	inner := r.Mark()

	// releasing out of order must fail
	err := r.Unmark(outer)
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, InvalidMarker, perr.Kind)

	require.NoError(t, r.Unmark(inner))
	require.NoError(t, r.Unmark(outer))
}

func TestReaderCompactionSafetyWithLiveMark(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("AAAA")
	sb.WriteString(strings.Repeat("B", 8192))

	r := NewReader(FromIOReader(strings.NewReader(sb.String())))
	ctx := context.Background()

	m := r.Mark()
	_, err := r.ReadN(ctx, 4)
	require.NoError(t, err)

	// force further reads/compaction attempts while m is still live
	_, err = r.ReadN(ctx, 4096)
	require.NoError(t, err)

	require.NoError(t, r.Reset(m))
	b, err := r.ReadN(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "AAAA", string(b))
}

func TestReaderReadUntilAnyLeavesDelimiterUnconsumed(t *testing.T) {
	r := NewReader(FromIOReader(strings.NewReader("value, rest")))
	ctx := context.Background()

	content, err := r.ReadUntilAny(ctx, [][]byte{[]byte(", ")})
	require.NoError(t, err)
	assert.Equal(t, "value", string(content))

	// the delimiter itself must still be in the stream
	lit, err := r.ReadLiteral(ctx, []byte(", "))
	require.NoError(t, err)
	assert.Equal(t, ", ", string(lit))
}
