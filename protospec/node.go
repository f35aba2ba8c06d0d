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

// Kind 枚举了 Node 能表示的全部终结符/组合符类型
type Kind uint8

const (
	// KindAnyString 读取直到下一个兄弟节点声明的字面量边界为止的任意字符串
	KindAnyString Kind = iota
	// KindExactString 固定字面量 读时原样匹配 写时原样输出
	KindExactString
	// KindOneOf 从一组候选字面量中匹配其一
	KindOneOf
	// KindBytes 读取直到流结束的剩余全部字节
	KindBytes
	// KindBytesOfSizeN 读取固定 N 字节
	KindBytesOfSizeN
	// KindBytesOfSizeFromHeader 读取数量由此前已写入 Store 的某个具名槽位决定的字节
	KindBytesOfSizeFromHeader
	// KindSpace 单个空格分隔符
	KindSpace
	// KindNewline 行结束分隔符 (CRLF)
	KindNewline
	// KindDelimiter 任意字面量分隔符
	KindDelimiter
	// KindComposite 顺序排列的子节点序列
	KindComposite
	// KindRepeatMany 以 0 或 1 次为下限 重复匹配同一个子组合 直到其不再匹配
	KindRepeatMany
	// KindRepeatN 固定重复 N 次的子组合
	KindRepeatN
)

func (k Kind) String() string {
	switch k {
	case KindAnyString:
		return "any_string"
	case KindExactString:
		return "exact_string"
	case KindOneOf:
		return "one_of"
	case KindBytes:
		return "bytes"
	case KindBytesOfSizeN:
		return "bytes_of_size_n"
	case KindBytesOfSizeFromHeader:
		return "bytes_of_size_from_header"
	case KindSpace:
		return "space"
	case KindNewline:
		return "newline"
	case KindDelimiter:
		return "delimiter"
	case KindComposite:
		return "composite"
	case KindRepeatMany:
		return "repeat_many"
	case KindRepeatN:
		return "repeat_n"
	default:
		return "unknown"
	}
}

// IdentKind 枚举了节点携带的标识符种类 决定了 Decode/Encode 如何把读出的值
// 映射进 (或从) Store 中
type IdentKind uint8

const (
	// IdentAnonymous 不绑定任何槽位 读出的值被丢弃
	IdentAnonymous IdentKind = iota
	// IdentNamed 绑定到一个固定名字的槽位
	IdentNamed
	// IdentKeySlot 节点读出的字符串本身就是某个分组的 key 名
	IdentKeySlot
	// IdentValueSlot 节点读出的值写入当前挂起 key 对应的槽位
	IdentValueSlot
	// IdentInlineKeyWithFixedName 节点自身既是数据又隐含一个编译期已知的固定 key 名
	IdentInlineKeyWithFixedName
)

// Identifier 描述节点如何与 Store 中的槽位/分组关联
type Identifier struct {
	Kind IdentKind

	// Name 的含义依 Kind 而定:
	//   IdentNamed                  -> 槽位名
	//   IdentKeySlot/IdentValueSlot -> 槽位所属的分组名
	//   IdentInlineKeyWithFixedName -> 固定的槽位名
	Name string
}

var identAnonymous = Identifier{Kind: IdentAnonymous}

// Node 是协议描述树中的一个节点 同一棵树在 Decode 与 Encode 之间共享
//
// 一棵树只应由 Builder 构造 字段在构建完成后不应再被外部修改
type Node struct {
	Kind     Kind
	Ident    Identifier
	Optional bool
	Children []*Node

	Literal    []byte   // ExactString / Space / Newline / Delimiter 的字面量
	Alts       [][]byte // OneOf 的候选集合
	N          int      // BytesOfSizeN / RepeatN 的数量
	HeaderName string   // BytesOfSizeFromHeader 引用的具名槽位
	Separator  *Node    // RepeatMany 相邻两次迭代之间的分隔节点 nil 表示无分隔
	Group      string   // RepeatMany 绑定的分组名 空字符串表示不是一个键值分组

	// terminators 是为 AnyString 节点在构建期预先计算好的终止字面量集合
	// 取自其在复合节点中的下一个兄弟节点 避免在每次 Decode 时重新遍历树
	terminators [][]byte
}
