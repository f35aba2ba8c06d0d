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

package httpspec

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequestWithBody(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Content-Length: 5\r\n" +
		"\r\n" +
		"hello"

	req, err := DecodeRequest(context.Background(), strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/submit", req.URI)
	assert.Equal(t, "HTTP/1.1", req.Version)
	assert.Equal(t, []string{"Host", "Content-Length"}, req.HeaderOrder)
	assert.Equal(t, "example.com", req.Headers["Host"])
	assert.Equal(t, []byte("hello"), req.Body)
}

func TestDecodeResponseWithoutBody(t *testing.T) {
	raw := "HTTP/1.1 204 No Content\r\n" +
		"Content-Length: 0\r\n" +
		"\r\n"

	resp, err := DecodeResponse(context.Background(), strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "HTTP/1.1", resp.Version)
	assert.Equal(t, "204", resp.StatusCode)
	assert.Equal(t, "No Content", resp.Reason)
	assert.Empty(t, resp.Body)
}

func TestEncodeRequestRoundTrip(t *testing.T) {
	req := &Request{
		Method:      "GET",
		URI:         "/x",
		Version:     "HTTP/1.1",
		Headers:     map[string]string{"Host": "h", "Content-Length": "0"},
		HeaderOrder: []string{"Host", "Content-Length"},
		Body:        nil,
	}

	var out strings.Builder
	sink := stringSink{&out}
	require.NoError(t, EncodeRequest(req, sink))

	decoded, err := DecodeRequest(context.Background(), strings.NewReader(out.String()))
	require.NoError(t, err)
	assert.Equal(t, req.Method, decoded.Method)
	assert.Equal(t, req.URI, decoded.URI)
	assert.Equal(t, req.Headers["Host"], decoded.Headers["Host"])
}

// stringSink adapts a strings.Builder into a protospec.Sink for tests.
type stringSink struct {
	b *strings.Builder
}

func (s stringSink) Write(p []byte) (int, error) { return s.b.Write(p) }
func (s stringSink) Flush() error                { return nil }
func (s stringSink) Close() error                { return nil }
