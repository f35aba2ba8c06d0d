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

// Package protospec declares wire protocols as a reusable AST and walks that
// AST to drive a streaming decoder and a symmetric encoder.
//
// A protocol is built once with Builder and reused across every connection
// that speaks it: a Node tree describes the shape of the wire format, Decode
// reads a message off a Reader into a Store, and Encode writes a Store back
// out through a Sink using the same tree. HTTP/1.1-ish request lines,
// newline-delimited key/value headers and length-prefixed bodies are all
// expressible without writing a dedicated parser per protocol.
package protospec
