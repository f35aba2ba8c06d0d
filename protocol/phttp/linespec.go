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

package phttp

import (
	"bytes"
	"context"

	"github.com/protospecd/protospecd/protospec"
	"github.com/protospecd/protospecd/protospec/httpspec"
)

// requestLineSpec / statusLineSpec 与 httpspec.RequestSpec / httpspec.ResponseSpec
// 内嵌的是同一棵树 构建一次后即为只读 可以安全地在所有连接、所有 decoder 实例间共享
//
// decoder 过去仅靠判断某一行是否以 " HTTP/1.1\r\n" 结尾来猜测它是不是请求行
// 这里改为交给 protospec 按声明式规格实际走一遍匹配 判定结果等价于
// httpspec.DecodeRequest/DecodeResponse 对同一行数据的头部会得出的结论
var (
	requestLineSpec = httpspec.RequestLineSpec()
	statusLineSpec  = httpspec.StatusLineSpec()
)

// matchesRequestLine 判断 line 是否构成一个合法的 HTTP 请求行
func matchesRequestLine(line []byte) bool {
	return decodesAgainstLineSpec(requestLineSpec, line)
}

// matchesStatusLine 判断 line 是否构成一个合法的 HTTP 状态行
func matchesStatusLine(line []byte) bool {
	return decodesAgainstLineSpec(statusLineSpec, line)
}

// decodesAgainstLineSpec 尝试用 spec 去匹配单独一行数据 不关心匹配出的具体字段
// 只关心这一行的形状是否满足 spec 描述的语法 watchdog 被关闭是因为 line 已经是
// 一次性到手的完整字节切片 不存在需要继续等待后续数据的情况
func decodesAgainstLineSpec(spec *protospec.Node, line []byte) bool {
	store := protospec.NewStore()
	r := protospec.NewReader(protospec.FromIOReader(bytes.NewReader(line)), protospec.WithWatchdog(0))
	defer r.Release()
	return protospec.Decode(context.Background(), spec, r, store) == nil
}
