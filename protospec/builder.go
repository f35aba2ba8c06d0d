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

import "github.com/protospecd/protospecd/internal/splitio"

// Builder 以流畅接口的方式拼装出一棵复合节点的子节点序列
//
// Tag 方法 (Named/KeySlot/ValueSlot/InlineKey) 只影响*紧随其后*的一次
// Expect* 调用 调用完毕后待定标识符即被清空 不会串到下一个节点上
type Builder struct {
	children []*Node
	pending  Identifier
	err      error
}

// NewBuilder 创建一个空的 Builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Named 将紧随其后的节点标记为具名槽位
func (b *Builder) Named(name string) *Builder {
	b.pending = Identifier{Kind: IdentNamed, Name: name}
	return b
}

// KeySlot 将紧随其后的节点标记为 group 分组的 key 槽位
func (b *Builder) KeySlot(group string) *Builder {
	b.pending = Identifier{Kind: IdentKeySlot, Name: group}
	return b
}

// ValueSlot 将紧随其后的节点标记为当前挂起 key 对应的 value 槽位
func (b *Builder) ValueSlot(group string) *Builder {
	b.pending = Identifier{Kind: IdentValueSlot, Name: group}
	return b
}

// InlineKey 将紧随其后的节点标记为内联 key/value 节点 固定绑定至 name
func (b *Builder) InlineKey(name string) *Builder {
	b.pending = Identifier{Kind: IdentInlineKeyWithFixedName, Name: name}
	return b
}

func (b *Builder) take() Identifier {
	id := b.pending
	b.pending = identAnonymous
	return id
}

func (b *Builder) append(n *Node) *Builder {
	b.children = append(b.children, n)
	return b
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Optional 将最近一次 append 的节点标记为可选
func (b *Builder) Optional() *Builder {
	if len(b.children) == 0 {
		return b.fail(newInvalidSpec("Optional() called with no preceding node"))
	}
	b.children[len(b.children)-1].Optional = true
	return b
}

// ExpectString 期望一个 AnyString 节点 其终止边界由下一个兄弟节点推导
func (b *Builder) ExpectString() *Builder {
	return b.append(&Node{Ident: b.take(), Kind: KindAnyString})
}

// ExpectExactString 期望一个固定字面量
func (b *Builder) ExpectExactString(literal string) *Builder {
	return b.append(&Node{Ident: b.take(), Kind: KindExactString, Literal: []byte(literal)})
}

// ExpectOneOfString 期望候选集合中的任意一个字面量
func (b *Builder) ExpectOneOfString(alts ...string) *Builder {
	if len(alts) == 0 {
		return b.fail(newInvalidSpec("ExpectOneOfString requires at least one alternative"))
	}
	raw := make([][]byte, len(alts))
	for i, a := range alts {
		raw[i] = []byte(a)
	}
	return b.append(&Node{Ident: b.take(), Kind: KindOneOf, Alts: raw})
}

// ExpectBytes 期望读取直到流结束的剩余全部字节
func (b *Builder) ExpectBytes() *Builder {
	return b.append(&Node{Ident: b.take(), Kind: KindBytes})
}

// ExpectBytesOfSizeN 期望固定 n 字节
func (b *Builder) ExpectBytesOfSizeN(n int) *Builder {
	if n < 0 {
		return b.fail(newInvalidSpec("ExpectBytesOfSizeN requires a non-negative size"))
	}
	return b.append(&Node{Ident: b.take(), Kind: KindBytesOfSizeN, N: n})
}

// ExpectBytesOfSizeFromHeader 期望读取 headerName 对应槽位当前值所给定的字节数
func (b *Builder) ExpectBytesOfSizeFromHeader(headerName string) *Builder {
	if headerName == "" {
		return b.fail(newInvalidSpec("ExpectBytesOfSizeFromHeader requires a non-empty header name"))
	}
	return b.append(&Node{Ident: b.take(), Kind: KindBytesOfSizeFromHeader, HeaderName: headerName})
}

// DelimitedBySpace 插入一个单空格分隔符
func (b *Builder) DelimitedBySpace() *Builder {
	return b.append(&Node{Ident: b.take(), Kind: KindSpace, Literal: []byte(" ")})
}

// DelimitedByNewline 插入一个 CRLF 分隔符
func (b *Builder) DelimitedByNewline() *Builder {
	return b.append(&Node{Ident: b.take(), Kind: KindNewline, Literal: splitio.CharCRLF})
}

// DelimitedBy 插入一个任意字面量分隔符
func (b *Builder) DelimitedBy(literal string) *Builder {
	if literal == "" {
		return b.fail(newInvalidSpec("DelimitedBy requires a non-empty literal"))
	}
	return b.append(&Node{Ident: b.take(), Kind: KindDelimiter, Literal: []byte(literal)})
}

// ExpectComposite 嵌入一棵已构建好的子树 (通常来自另一个 Builder 的 Build 结果)
func (b *Builder) ExpectComposite(child *Node) *Builder {
	if child == nil {
		return b.fail(newInvalidSpec("ExpectComposite requires a non-nil child"))
	}
	return b.append(child)
}

// RepeatMany 重复匹配 child 直到其不再匹配
//
// sep 非空时 要求相邻两次成功迭代之间先匹配 sep 再尝试下一次 child
// group 非空时 将其视为一个键值分组: child 每次迭代产出的 key/value 都会
// 被记录进该分组 供 Encode 时按序回放
func (b *Builder) RepeatMany(child *Node, sep *Node, optional bool, group string) *Builder {
	if child == nil || child.Kind != KindComposite {
		return b.fail(newInvalidSpec("RepeatMany requires a composite child"))
	}
	return b.append(&Node{
		Kind:      KindRepeatMany,
		Children:  []*Node{child},
		Optional:  optional,
		Separator: sep,
		Group:     group,
	})
}

// RepeatN 固定重复 child n 次
func (b *Builder) RepeatN(child *Node, n int) *Builder {
	if child == nil || child.Kind != KindComposite {
		return b.fail(newInvalidSpec("RepeatN requires a composite child"))
	}
	if n < 0 {
		return b.fail(newInvalidSpec("RepeatN requires a non-negative count"))
	}
	return b.append(&Node{Kind: KindRepeatN, Children: []*Node{child}, N: n})
}

// Build 校验并返回当前累积的子节点序列所组成的复合节点
//
// 校验内容为: 每个 AnyString 节点都必须存在下一个兄弟节点 且该兄弟节点
// 能够推导出一个或多个终止字面量 (ExactString/Space/Newline/Delimiter/OneOf)
func (b *Builder) Build() (*Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := resolveTerminators(b.children); err != nil {
		return nil, err
	}
	return &Node{Kind: KindComposite, Children: b.children}, nil
}

func resolveTerminators(children []*Node) error {
	for i, c := range children {
		if c.Kind != KindAnyString {
			continue
		}
		if i+1 >= len(children) {
			return newInvalidSpec("AnyString node has no following sibling to terminate on")
		}
		alts, ok := terminatorAltsOf(children[i+1])
		if !ok {
			return newInvalidSpec("AnyString node must be followed by a literal-yielding sibling, found %s", children[i+1].Kind)
		}
		c.terminators = alts
	}
	return nil
}

func terminatorAltsOf(n *Node) ([][]byte, bool) {
	switch n.Kind {
	case KindExactString, KindDelimiter, KindNewline:
		return [][]byte{n.Literal}, true
	case KindSpace:
		return [][]byte{[]byte(" ")}, true
	case KindOneOf:
		return n.Alts, true
	default:
		return nil, false
	}
}
