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

// Mapper 在 Decode/Encode 真正读写字节之前 先对一棵 Node 树做一次静态
// 预遍历 用来提前发现它需要多少具名槽位与分组
//
// 这一步只走树结构 不触碰任何 Reader/Sink 可以被复用在诸如生成文档、
// 校验工具之类的场景中
type Mapper interface {
	VisitNamed(name string)
	VisitKeySlot(group string)
	VisitValueSlot(group string)
	EnterGroup(name string)
	ExitGroup()
}

// Walk 对树做一次深度优先遍历 按遇到的顺序回调 m
func Walk(root *Node, m Mapper) {
	if root == nil {
		return
	}
	if root.Kind == KindRepeatMany && root.Group != "" {
		m.EnterGroup(root.Group)
		defer m.ExitGroup()
	}
	switch root.Ident.Kind {
	case IdentNamed, IdentInlineKeyWithFixedName:
		m.VisitNamed(root.Ident.Name)
	case IdentKeySlot:
		m.VisitKeySlot(root.Ident.Name)
	case IdentValueSlot:
		m.VisitValueSlot(root.Ident.Name)
	}
	for _, c := range root.Children {
		Walk(c, m)
	}
}

// slotCounter 是一个只统计具名槽位数量的 Mapper 实现 为 Store 预分配容量
type slotCounter struct {
	count int
}

func (c *slotCounter) VisitNamed(string)    { c.count++ }
func (c *slotCounter) VisitKeySlot(string)  {}
func (c *slotCounter) VisitValueSlot(string) { c.count++ }
func (c *slotCounter) EnterGroup(string)    {}
func (c *slotCounter) ExitGroup()           {}

// PreallocateStore 遍历 root 估算所需槽位数量 并返回一个按此容量预分配的 Store
func PreallocateStore(root *Node) *Store {
	c := &slotCounter{}
	Walk(root, c)
	return newStoreWithCapacity(c.count)
}
