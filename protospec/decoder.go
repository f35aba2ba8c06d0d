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

import "context"

// Decode 以 root 描述的形状从 r 中读取一条消息 并把解析出的属性写入 store
//
// root 必须是一个 Composite 节点 通常来自 Builder.Build 的返回值 同一个
// root 可以被多条连接、多条消息反复复用 它在构建完成后是只读的
func Decode(ctx context.Context, root *Node, r *Reader, store *Store) error {
	d := &decodeWalk{ctx: ctx, r: r, store: store}
	if err := d.walk(root); err != nil {
		return err
	}
	store.MarkDone()
	return nil
}

// decodeWalk 承载着一次 Decode 调用期间需要跨节点传递的状态: 当前挂起的
// key 以及它所属的分组 这对应着 §4.5 所说的"key/value 绑定"状态
type decodeWalk struct {
	ctx   context.Context
	r     *Reader
	store *Store

	hasKey       bool
	currentKey   string
	pendingGroup string
}

func (d *decodeWalk) walk(n *Node) error {
	if n.Kind == KindRepeatMany {
		return d.walkRepeatMany(n)
	}
	if n.Optional {
		m := d.r.Mark()
		if err := d.walkKind(n); err != nil {
			if rerr := d.r.Reset(m); rerr != nil {
				return rerr
			}
			return nil
		}
		return d.r.Unmark(m)
	}
	return d.walkKind(n)
}

func (d *decodeWalk) walkKind(n *Node) error {
	switch n.Kind {
	case KindComposite:
		for _, c := range n.Children {
			if err := d.walk(c); err != nil {
				return err
			}
		}
		if d.hasKey {
			return newMissingKey(d.r.Line(), d.r.Col(), "key %q has no matching value", d.currentKey)
		}
		return nil

	case KindExactString:
		b, err := d.r.ReadLiteral(d.ctx, n.Literal)
		if err != nil {
			return err
		}
		d.r.noteChars(len(b))
		return d.emit(n, StringValue(string(b)))

	case KindAnyString:
		b, err := d.r.ReadUntilAny(d.ctx, n.terminators)
		if err != nil {
			return err
		}
		d.r.noteChars(len(b))
		return d.emit(n, StringValue(string(b)))

	case KindOneOf:
		b, err := d.r.ReadOneOf(d.ctx, n.Alts)
		if err != nil {
			return err
		}
		d.r.noteChars(len(b))
		return d.emit(n, StringValue(string(b)))

	case KindSpace:
		_, err := d.r.ReadLiteral(d.ctx, n.Literal)
		if err != nil {
			return err
		}
		d.r.noteChars(1)
		return nil

	case KindNewline:
		_, err := d.r.ReadLiteral(d.ctx, n.Literal)
		if err != nil {
			return err
		}
		d.r.noteNewline()
		return nil

	case KindDelimiter:
		b, err := d.r.ReadLiteral(d.ctx, n.Literal)
		if err != nil {
			return err
		}
		d.r.noteChars(len(b))
		return nil

	case KindBytesOfSizeN:
		b, err := d.r.ReadN(d.ctx, n.N)
		if err != nil {
			return err
		}
		return d.emit(n, BytesValue(b))

	case KindBytesOfSizeFromHeader:
		v, ok := d.store.GetInfo(n.HeaderName)
		if !ok {
			return newInvalidToken(d.r.Line(), d.r.Col(), "header %q has not been populated yet", n.HeaderName)
		}
		size, err := sizeOf(v)
		if err != nil {
			return newInvalidToken(d.r.Line(), d.r.Col(), "header %q is not size-like: %s", n.HeaderName, err)
		}
		b, err := d.r.ReadN(d.ctx, size)
		if err != nil {
			return err
		}
		return d.emit(n, BytesValue(b))

	case KindBytes:
		b, err := d.r.ReadRest(d.ctx)
		if err != nil {
			return err
		}
		return d.emit(n, BytesValue(b))

	case KindRepeatN:
		child := n.Children[0]
		for i := 0; i < n.N; i++ {
			if err := d.walk(child); err != nil {
				return err
			}
		}
		return nil

	default:
		return newInvalidSpec("unknown node kind %s encountered while decoding", n.Kind)
	}
}

// emit 按节点标识符将读出的值写入 store 并维护 key/value 绑定状态
func (d *decodeWalk) emit(n *Node, v Value) error {
	switch n.Ident.Kind {
	case IdentAnonymous:
		return nil

	case IdentNamed, IdentInlineKeyWithFixedName:
		d.store.AddInfo(n.Ident.Name, v)
		return nil

	case IdentKeySlot:
		if v.Kind != VString {
			return newInvalidToken(d.r.Line(), d.r.Col(), "key slot produced a non-string value")
		}
		d.hasKey = true
		d.currentKey = v.Str
		d.pendingGroup = n.Ident.Name
		return nil

	case IdentValueSlot:
		if !d.hasKey {
			return newMissingKey(d.r.Line(), d.r.Col(), "value produced with no key pending")
		}
		d.store.AddInfo(d.currentKey, v)
		if d.pendingGroup != "" {
			d.store.addGroupKey(d.pendingGroup, d.currentKey)
		}
		d.hasKey = false
		d.currentKey = ""
		d.pendingGroup = ""
		return nil

	default:
		return nil
	}
}

// walkRepeatMany 驱动 RepeatMany 的状态机: Start -> InIteration -> AfterSuccess -> Start
// 一旦一次迭代 (分隔符 + child) 失败 整个迭代区间被原子性地回退 游标
// 最终停在最后一次成功迭代结束的位置
func (d *decodeWalk) walkRepeatMany(n *Node) error {
	child := n.Children[0]
	count := 0
	var lastErr error

	for {
		m := d.r.Mark()

		if count > 0 && n.Separator != nil {
			if err := d.walkKind(n.Separator); err != nil {
				if rerr := d.r.Reset(m); rerr != nil {
					return rerr
				}
				lastErr = err
				break
			}
		}

		if err := d.walk(child); err != nil {
			if rerr := d.r.Reset(m); rerr != nil {
				return rerr
			}
			lastErr = err
			break
		}

		if err := d.r.Unmark(m); err != nil {
			return err
		}
		count++
	}

	if count == 0 && !n.Optional {
		if lastErr != nil {
			return lastErr
		}
		return newTokenExpected(d.r.Line(), d.r.Col(), "repeat-many requires at least one successful iteration")
	}
	return nil
}
