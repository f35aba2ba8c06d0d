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
	"bufio"
	"io"
)

// Sink 是 Encode 的字节去向 对应异步推送式的写入契约: 持续 Write 直到
// 整棵树走完 再 Flush 一次性冲出去 Close 由调用方在连接生命周期结束时负责
type Sink interface {
	io.Writer
	Flush() error
	Close() error
}

type bufSink struct {
	*bufio.Writer
	closer io.Closer
}

func (s *bufSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// NewSink 将一个 io.Writer 包装为 Sink 若 w 同时实现了 io.Closer 则
// Close 会被转发给它 否则 Close 是无操作的
func NewSink(w io.Writer) Sink {
	closer, _ := w.(io.Closer)
	return &bufSink{Writer: bufio.NewWriter(w), closer: closer}
}

// Encode 按 root 描述的形状把 store 中的属性写出到 w
//
// 写入在整棵树走完之后统一 Flush 一次 中途不会产生部分写出的消息
func Encode(root *Node, store *Store, w Sink) error {
	e := &encodeWalk{store: store, w: w}
	if err := e.walk(root); err != nil {
		return err
	}
	return e.w.Flush()
}

type encodeWalk struct {
	store *Store
	w     Sink

	hasKey     bool
	currentKey string
}

func (e *encodeWalk) walk(n *Node) error {
	if n.Kind == KindRepeatMany {
		return e.walkRepeatMany(n)
	}
	return e.walkKind(n)
}

func (e *encodeWalk) writeLiteral(b []byte) error {
	_, err := e.w.Write(b)
	return err
}

func (e *encodeWalk) walkKind(n *Node) error {
	switch n.Kind {
	case KindComposite:
		for _, c := range n.Children {
			if err := e.walk(c); err != nil {
				return err
			}
		}
		return nil

	case KindExactString:
		if n.Optional && !e.literalPresent(n) {
			return nil
		}
		return e.writeLiteral(n.Literal)

	case KindSpace:
		if n.Optional && !e.literalPresent(n) {
			return nil
		}
		return e.writeLiteral([]byte(" "))

	case KindNewline:
		if n.Optional && !e.literalPresent(n) {
			return nil
		}
		return e.writeLiteral(n.Literal)

	case KindDelimiter:
		if n.Optional && !e.literalPresent(n) {
			return nil
		}
		return e.writeLiteral(n.Literal)

	case KindAnyString, KindOneOf, KindBytesOfSizeN, KindBytesOfSizeFromHeader, KindBytes:
		v, ok := e.resolve(n)
		if !ok {
			if n.Optional {
				return nil
			}
			return newMissingValue(0, 0, identLabel(n.Ident))
		}
		return e.writeLiteral(v.RawBytes())

	case KindRepeatN:
		child := n.Children[0]
		for i := 0; i < n.N; i++ {
			if err := e.walk(child); err != nil {
				return err
			}
		}
		return nil

	default:
		return newInvalidSpec("unknown node kind %s encountered while encoding", n.Kind)
	}
}

// resolve 按节点标识符从 store 中找出应当写出的值 对应 Decode 中 emit 的逆操作
func (e *encodeWalk) resolve(n *Node) (Value, bool) {
	switch n.Ident.Kind {
	case IdentNamed, IdentInlineKeyWithFixedName:
		return e.store.GetInfo(n.Ident.Name)
	case IdentKeySlot:
		if !e.hasKey {
			return Value{}, false
		}
		return StringValue(e.currentKey), true
	case IdentValueSlot:
		if !e.hasKey {
			return Value{}, false
		}
		return e.store.GetInfo(e.currentKey)
	default:
		return Value{}, false
	}
}

// literalPresent 判断一个被标记为 Optional 的字面量节点 (ExactString/Space/
// Newline/Delimiter) 在本次编码中是否应当写出
//
// 这类节点本身不承载数据 只有当它绑定了一个具名槽位 (Named/InlineKey) 时
// "槽位是否存在" 才有意义: 若 store 中没有对应项 视为该可选片段缺失 跳过
// 写出 未绑定槽位的字面量节点 (绝大多数 Space/Newline/Delimiter 分隔符)
// 没有槽位可言 一律视为存在 维持其一贯被写出的行为
func (e *encodeWalk) literalPresent(n *Node) bool {
	switch n.Ident.Kind {
	case IdentNamed, IdentInlineKeyWithFixedName:
		_, ok := e.store.GetInfo(n.Ident.Name)
		return ok
	default:
		return true
	}
}

func identLabel(id Identifier) string {
	if id.Name == "" {
		return "<anonymous>"
	}
	return id.Name
}

// walkRepeatMany 按分组中 key 的首次出现顺序逐个回放 child 没有声明分组的
// RepeatMany 不具备可回放的数据源 一律被视为零次迭代
func (e *encodeWalk) walkRepeatMany(n *Node) error {
	child := n.Children[0]

	var keys []string
	if n.Group != "" {
		keys, _ = e.store.GetKeysByGroup(n.Group)
	}

	for i, k := range keys {
		if i > 0 && n.Separator != nil {
			if err := e.walkKind(n.Separator); err != nil {
				return err
			}
		}
		e.hasKey = true
		e.currentKey = k
		err := e.walk(child)
		e.hasKey = false
		e.currentKey = ""
		if err != nil {
			return err
		}
	}

	if len(keys) == 0 && !n.Optional {
		return newMissingValue(0, 0, n.Group)
	}
	return nil
}
