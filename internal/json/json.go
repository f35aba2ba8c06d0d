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

// Package json 对 goccy/go-json 做了一层薄封装
//
// 相较于标准库 encoding/json goccy/go-json 在本项目的高频编解码场景下有着更低的
// 分配开销 对外暴露的接口形态与标准库保持一致 方便替换
package json

import (
	"io"

	"github.com/goccy/go-json"
)

var (
	Marshal   = json.Marshal
	Unmarshal = json.Unmarshal
	Valid     = json.Valid
)

type RawMessage = json.RawMessage

// Encoder 对外暴露的流式编码器
type Encoder interface {
	Encode(v any) error
}

// NewEncoder 创建并返回一个按行写出 JSON 的 Encoder
func NewEncoder(w io.Writer) Encoder {
	return json.NewEncoder(w)
}

// NewDecoder 创建并返回一个按行读取 JSON 的 Decoder
func NewDecoder(r io.Reader) *json.Decoder {
	return json.NewDecoder(r)
}
