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

func mustBuild(t *testing.T, b *Builder) *Node {
	t.Helper()
	n, err := b.Build()
	require.NoError(t, err)
	return n
}

func decodeString(t *testing.T, root *Node, input string) (*Store, error) {
	t.Helper()
	r := NewReader(FromIOReader(strings.NewReader(input)))
	store := PreallocateStore(root)
	err := Decode(context.Background(), root, r, store)
	return store, err
}

// requestLineSpec builds OneOf({GET,POST,DELETE,PUT,OPTIONS}) SP AnyString SP AnyString NL
func requestLineSpec(t *testing.T) *Node {
	return mustBuild(t, NewBuilder().
		Named("request_method").ExpectOneOfString("GET", "POST", "DELETE", "PUT", "OPTIONS").
		DelimitedBySpace().
		Named("request_uri").ExpectString().
		DelimitedBySpace().
		Named("protocol_version").ExpectString().
		DelimitedByNewline())
}

func TestDecodeHTTPRequestLine(t *testing.T) {
	root := requestLineSpec(t)

	store, err := decodeString(t, root, "GET /index.html HTTP/1.1\r\n")
	require.NoError(t, err)

	method, ok := store.GetInfo("request_method")
	require.True(t, ok)
	assert.Equal(t, "GET", method.Str)

	uri, ok := store.GetInfo("request_uri")
	require.True(t, ok)
	assert.Equal(t, "/index.html", uri.Str)

	version, ok := store.GetInfo("protocol_version")
	require.True(t, ok)
	assert.Equal(t, "HTTP/1.1", version.Str)
}

func TestDecodeHTTPRequestLineUnknownMethod(t *testing.T) {
	root := requestLineSpec(t)

	_, err := decodeString(t, root, "PATCH /x HTTP/1.1\r\n")
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, TokenExpected, perr.Kind)
	assert.Equal(t, 0, perr.Line)
	assert.Equal(t, 1, perr.Col)
}

// headerBlockSpec builds RepeatMany(KeySlot AnyString ": " ValueSlot AnyString NL) NL
func headerBlockSpec(t *testing.T) *Node {
	header := mustBuild(t, NewBuilder().
		KeySlot("headers").ExpectString().
		DelimitedBy(": ").
		ValueSlot("headers").ExpectString().
		DelimitedByNewline())

	return mustBuild(t, NewBuilder().
		RepeatMany(header, nil, true, "headers").
		DelimitedByNewline())
}

func TestDecodeHeaderBlock(t *testing.T) {
	root := headerBlockSpec(t)

	store, err := decodeString(t, root, "a: 1\r\nb: 2\r\n\r\n")
	require.NoError(t, err)

	keys, ok := store.GetKeysByGroup("headers")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, keys)

	a, ok := store.GetInfo("a")
	require.True(t, ok)
	assert.Equal(t, "1", a.Str)

	b, ok := store.GetInfo("b")
	require.True(t, ok)
	assert.Equal(t, "2", b.Str)
}

// bodySpec builds the header block spec followed by a BytesOfSizeFromHeader("Content-Length") body
func bodySpec(t *testing.T) *Node {
	header := mustBuild(t, NewBuilder().
		KeySlot("headers").ExpectString().
		DelimitedBy(": ").
		ValueSlot("headers").ExpectString().
		DelimitedByNewline())

	return mustBuild(t, NewBuilder().
		RepeatMany(header, nil, true, "headers").
		DelimitedByNewline().
		Named("body").ExpectBytesOfSizeFromHeader("Content-Length"))
}

func TestDecodeLengthPrefixedBody(t *testing.T) {
	root := bodySpec(t)

	store, err := decodeString(t, root, "Content-Length: 5\r\n\r\nhello")
	require.NoError(t, err)

	body, ok := store.GetInfo("body")
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), body.Bytes)
}

func TestDecodeLengthPrefixedBodyShortRead(t *testing.T) {
	root := bodySpec(t)

	_, err := decodeString(t, root, "Content-Length: 7\r\n\r\nhello")
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, EndOfStream, perr.Kind)
}

// optionalTrailingSpec builds AnyString SP ExactString("World", optional=true)
func optionalTrailingSpec(t *testing.T) *Node {
	b := NewBuilder().
		Named("first_word").ExpectString().
		DelimitedBySpace().
		Named("second_word").ExpectExactString("World")
	b.Optional()
	return mustBuild(t, b)
}

func TestDecodeOptionalTrailingTokenAbsent(t *testing.T) {
	root := optionalTrailingSpec(t)

	store, err := decodeString(t, root, "Hello \r\n")
	require.NoError(t, err)

	first, ok := store.GetInfo("first_word")
	require.True(t, ok)
	assert.Equal(t, "Hello", first.Str)

	_, ok = store.GetInfo("second_word")
	assert.False(t, ok)
}

func TestDecodeOptionalTrailingTokenPresent(t *testing.T) {
	root := optionalTrailingSpec(t)

	store, err := decodeString(t, root, "Hello World")
	require.NoError(t, err)

	first, ok := store.GetInfo("first_word")
	require.True(t, ok)
	assert.Equal(t, "Hello", first.Str)

	second, ok := store.GetInfo("second_word")
	require.True(t, ok)
	assert.Equal(t, "World", second.Str)
}

// unexpectedTokenSpec builds AnyString SP ExactString("World")
func unexpectedTokenSpec(t *testing.T) *Node {
	return mustBuild(t, NewBuilder().
		Named("first_word").ExpectString().
		DelimitedBySpace().
		Named("second_word").ExpectExactString("World"))
}

func TestDecodeUnexpectedToken(t *testing.T) {
	root := unexpectedTokenSpec(t)

	_, err := decodeString(t, root, "Hello Earth\r\n")
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, TokenExpected, perr.Kind)
	assert.Equal(t, 0, perr.Line)
	assert.Equal(t, 7, perr.Col)
}

func TestRepeatManyBoundary(t *testing.T) {
	item := mustBuild(t, NewBuilder().Named("n").ExpectExactString("x"))

	t.Run("zero matches is an error", func(t *testing.T) {
		root := mustBuild(t, NewBuilder().RepeatMany(item, nil, false, ""))
		_, err := decodeString(t, root, "")
		require.Error(t, err)
	})

	t.Run("one match followed by non-separator", func(t *testing.T) {
		root := mustBuild(t, NewBuilder().RepeatMany(item, nil, false, ""))
		r := NewReader(FromIOReader(strings.NewReader("xy")))
		store := PreallocateStore(root)
		err := Decode(context.Background(), root, r, store)
		require.NoError(t, err)
		assert.Equal(t, 1, r.Offset())
	})

	t.Run("two matches separated by sep", func(t *testing.T) {
		sep := mustBuild(t, NewBuilder().ExpectExactString(","))
		root := mustBuild(t, NewBuilder().RepeatMany(item, sep, false, ""))
		r := NewReader(FromIOReader(strings.NewReader("x,xy")))
		store := PreallocateStore(root)
		err := Decode(context.Background(), root, r, store)
		require.NoError(t, err)
		assert.Equal(t, 3, r.Offset())
	})
}

func TestRoundTripHTTPRequest(t *testing.T) {
	header := mustBuild(t, NewBuilder().
		KeySlot("headers").ExpectString().
		DelimitedBy(": ").
		ValueSlot("headers").ExpectString().
		DelimitedByNewline())

	root := mustBuild(t, NewBuilder().
		Named("request_method").ExpectOneOfString("GET", "POST", "DELETE", "PUT", "OPTIONS").
		DelimitedBySpace().
		Named("request_uri").ExpectString().
		DelimitedBySpace().
		Named("protocol_version").ExpectString().
		DelimitedByNewline().
		RepeatMany(header, nil, true, "headers").
		DelimitedByNewline().
		Named("body").ExpectBytesOfSizeFromHeader("Content-Length"))

	store := NewStore()
	store.AddInfo("request_method", StringValue("POST"))
	store.AddInfo("request_uri", StringValue("/x"))
	store.AddInfo("protocol_version", StringValue("HTTP/1.1"))
	store.AddInfo("Host", StringValue("h"))
	store.AddInfo("Content-Length", StringValue("5"))
	store.AddInfo("body", BytesValue([]byte("hello")))
	store.addGroupKey("headers", "Host")
	store.addGroupKey("headers", "Content-Length")

	var out strings.Builder
	sink := NewSink(writeCloserFunc(func(p []byte) (int, error) {
		return out.Write(p)
	}))
	require.NoError(t, Encode(root, store, sink))

	decoded, err := decodeString(t, root, out.String())
	require.NoError(t, err)

	for _, key := range []string{"request_method", "request_uri", "protocol_version", "Host", "Content-Length"} {
		want, _ := store.GetInfo(key)
		got, ok := decoded.GetInfo(key)
		require.True(t, ok, key)
		assert.Equal(t, want.Str, got.Str, key)
	}

	body, ok := decoded.GetInfo("body")
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), body.Bytes)
}

// fixedFrameSpec builds ExactString("MAGIC") BytesOfSizeN(4) Bytes
// a fixed-length binary field followed by a trailing read-to-end field.
func fixedFrameSpec(t *testing.T) *Node {
	return mustBuild(t, NewBuilder().
		ExpectExactString("MAGIC").
		Named("tag").ExpectBytesOfSizeN(4).
		Named("payload").ExpectBytes())
}

func TestDecodeBytesOfSizeNAndBytes(t *testing.T) {
	root := fixedFrameSpec(t)

	store, err := decodeString(t, root, "MAGIC\x00\x01\x02\x03rest-of-stream")
	require.NoError(t, err)

	tag, ok := store.GetInfo("tag")
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0x03}, tag.Bytes)

	payload, ok := store.GetInfo("payload")
	require.True(t, ok)
	assert.Equal(t, []byte("rest-of-stream"), payload.Bytes)
}

func TestDecodeBytesOfSizeNShortRead(t *testing.T) {
	root := fixedFrameSpec(t)

	_, err := decodeString(t, root, "MAGIC\x00\x01")
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, EndOfStream, perr.Kind)
}

func TestRoundTripFixedFrame(t *testing.T) {
	root := fixedFrameSpec(t)

	store := NewStore()
	store.AddInfo("tag", BytesValue([]byte{0xAA, 0xBB, 0xCC, 0xDD}))
	store.AddInfo("payload", BytesValue([]byte("trailing-bytes")))

	var out strings.Builder
	sink := NewSink(writeCloserFunc(func(p []byte) (int, error) {
		return out.Write(p)
	}))
	require.NoError(t, Encode(root, store, sink))

	decoded, err := decodeString(t, root, out.String())
	require.NoError(t, err)

	tag, ok := decoded.GetInfo("tag")
	require.True(t, ok)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, tag.Bytes)

	payload, ok := decoded.GetInfo("payload")
	require.True(t, ok)
	assert.Equal(t, []byte("trailing-bytes"), payload.Bytes)
}

// writeCloserFunc adapts a write function into an io.Writer for NewSink.
type writeCloserFunc func(p []byte) (int, error)

func (f writeCloserFunc) Write(p []byte) (int, error) { return f(p) }
