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
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind 对应解码/编码过程中可能出现的结构性错误种类
type ErrorKind uint8

const (
	// TokenExpected 在当前游标位置期望某个字面量/分隔符 但未匹配到
	TokenExpected ErrorKind = iota
	// InvalidToken 匹配到了期望的边界 但其内容不满足节点自身的约束 (如长度头不是合法数字)
	InvalidToken
	// InvalidPlaceHolderTypeFound Builder 在构建期发现的树结构非法 (如 AnyString 缺少终止符兄弟节点)
	InvalidPlaceHolderTypeFound
	// InvalidMarker mark/reset/unmark 未按 LIFO 次序调用
	InvalidMarker
	// EndOfStream 数据源在满足当前读取需求之前耗尽或看门狗超时
	EndOfStream
	// MissingKey 写入一个 value-slot 时没有处于挂起状态的 key 或者反之
	MissingKey
	// MissingValue 序列化时某个具名节点在 Store 中找不到对应的值
	MissingValue
	// IoError 数据源返回了非 EOF 的底层 I/O 错误
	IoError
)

func (k ErrorKind) String() string {
	switch k {
	case TokenExpected:
		return "token_expected"
	case InvalidToken:
		return "invalid_token"
	case InvalidPlaceHolderTypeFound:
		return "invalid_placeholder_type"
	case InvalidMarker:
		return "invalid_marker"
	case EndOfStream:
		return "end_of_stream"
	case MissingKey:
		return "missing_key"
	case MissingValue:
		return "missing_value"
	case IoError:
		return "io_error"
	default:
		return "unknown"
	}
}

// Error 携带着发生错误时的游标位置 方便调用方定位报文中的具体问题
type Error struct {
	Kind ErrorKind
	Line int
	Col  int
	Name string // MissingValue/MissingKey 关联的节点名称 其余种类可留空
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == EndOfStream {
		if e.Msg != "" {
			return fmt.Sprintf("protospec: end of stream: %s", e.Msg)
		}
		return "protospec: end of stream"
	}
	if e.Name != "" {
		return fmt.Sprintf("protospec: %s at line %d, col %d: %s (%s)", e.Kind, e.Line, e.Col, e.Msg, e.Name)
	}
	return fmt.Sprintf("protospec: %s at line %d, col %d: %s", e.Kind, e.Line, e.Col, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 支持 errors.Is(err, &protospec.Error{Kind: protospec.EndOfStream}) 之类按种类比较的写法
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newTokenExpected(line, col int, format string, args ...any) *Error {
	return &Error{Kind: TokenExpected, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func newInvalidToken(line, col int, format string, args ...any) *Error {
	return &Error{Kind: InvalidToken, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func newInvalidMarker(line, col int, format string, args ...any) *Error {
	return &Error{Kind: InvalidMarker, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func newEndOfStream(line, col int, msg string) *Error {
	return &Error{Kind: EndOfStream, Line: line, Col: col, Msg: msg}
}

func newIoError(line, col int, err error) *Error {
	return &Error{Kind: IoError, Line: line, Col: col, Msg: "underlying source failed", Err: errors.WithStack(err)}
}

func newMissingKey(line, col int, format string, args ...any) *Error {
	return &Error{Kind: MissingKey, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func newMissingValue(line, col int, name string) *Error {
	return &Error{Kind: MissingValue, Line: line, Col: col, Name: name, Msg: "no value present for named slot"}
}

func newInvalidSpec(format string, args ...any) *Error {
	return &Error{Kind: InvalidPlaceHolderTypeFound, Msg: fmt.Sprintf(format, args...)}
}

// IsEndOfStream 判断 err 是否 (直接或经由 wrapping) 表示流已耗尽
func IsEndOfStream(err error) bool {
	return isKind(err, EndOfStream)
}

func isKind(err error, kind ErrorKind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
