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

// Package httpspec 使用 protospec 声明式地描述一个简化版 HTTP/1.1 请求/响应的报文结构
//
// 与 protocol/phttp 中面向生产环境、依赖 net/http 做 header 解析的 decoder 不同
// httpspec 完全由一棵 protospec.Node 树驱动 用于演示 protospec 引擎如何承载一个
// 真实协议的请求行 + header 块 + 定长 body 的组合 不处理 chunked 编码
package httpspec

import (
	"github.com/protospecd/protospecd/protospec"
)

const headersGroup = "headers"

// headerLineSpec 描述单行 header： KeySlot ": " ValueSlot NL
func headerLineSpec() *protospec.Node {
	n, err := protospec.NewBuilder().
		KeySlot(headersGroup).ExpectString().
		DelimitedBy(": ").
		ValueSlot(headersGroup).ExpectString().
		DelimitedByNewline().
		Build()
	if err != nil {
		panic(err) // 构建期错误 属于程序缺陷 不是运行时输入错误
	}
	return n
}

// RequestLineSpec 返回 `METHOD URI VERSION\r\n` 这一行本身的规格树
//
// 它被 RequestSpec 内嵌用于组成完整请求 也被 protocol/phttp 直接复用 用来
// 判定某一行字节是否构成一个合法的请求行 取代了逐字节比较后缀的旧做法
func RequestLineSpec() *protospec.Node {
	n, err := protospec.NewBuilder().
		Named("request_method").
		ExpectOneOfString("GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH", "CONNECT", "TRACE").
		DelimitedBySpace().
		Named("request_uri").ExpectString().
		DelimitedBySpace().
		Named("protocol_version").ExpectString().
		DelimitedByNewline().
		Build()
	if err != nil {
		panic(err)
	}
	return n
}

// StatusLineSpec 返回 `VERSION STATUS REASON\r\n` 这一行本身的规格树
// 同样被 ResponseSpec 内嵌 也被 protocol/phttp 直接复用于响应行判定
func StatusLineSpec() *protospec.Node {
	n, err := protospec.NewBuilder().
		Named("protocol_version").ExpectOneOfString("HTTP/1.1", "HTTP/1.0").
		DelimitedBySpace().
		Named("status_code").ExpectString().
		DelimitedBySpace().
		Named("reason_phrase").ExpectString().
		DelimitedByNewline().
		Build()
	if err != nil {
		panic(err)
	}
	return n
}

// RequestSpec 返回 `METHOD URI VERSION\r\n (header: value\r\n)* \r\n BODY` 的规格树
//
// BODY 的长度取自 header 块中的 Content-Length 键 若请求未携带 body 应显式写入 "0"
func RequestSpec() *protospec.Node {
	header := headerLineSpec()

	n, err := protospec.NewBuilder().
		ExpectComposite(RequestLineSpec()).
		RepeatMany(header, nil, true, headersGroup).
		DelimitedByNewline().
		Named("body").ExpectBytesOfSizeFromHeader("Content-Length").
		Build()
	if err != nil {
		panic(err)
	}
	return n
}

// ResponseSpec 返回 `VERSION STATUS REASON\r\n (header: value\r\n)* \r\n BODY` 的规格树
func ResponseSpec() *protospec.Node {
	header := headerLineSpec()

	n, err := protospec.NewBuilder().
		ExpectComposite(StatusLineSpec()).
		RepeatMany(header, nil, true, headersGroup).
		DelimitedByNewline().
		Named("body").ExpectBytesOfSizeFromHeader("Content-Length").
		Build()
	if err != nil {
		panic(err)
	}
	return n
}

// HeaderKeys 返回解码结果中出现过的 header 名称 保持原始出现顺序
func HeaderKeys(store *protospec.Store) []string {
	keys, _ := store.GetKeysByGroup(headersGroup)
	return keys
}
