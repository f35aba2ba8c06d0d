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

// Package bufpool 提供 *bytes.Buffer 的复用池
//
// 解码器每个连接都需要一块可增长的缓冲区来暂存尚未解析完成的报文片段
// 复用它们可以避免在高并发抓包场景下频繁触发大对象分配
package bufpool

import (
	"bytes"
	"sync"
)

var pool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// Acquire 从池中取出一个已重置的 *bytes.Buffer
func Acquire() *bytes.Buffer {
	return pool.Get().(*bytes.Buffer)
}

// Release 归还一个 *bytes.Buffer 至池中
//
// 超大的缓冲区不会被放回池中 避免一次性的大报文把常驻内存顶上去
func Release(buf *bytes.Buffer) {
	const maxRetainedSize = 1 << 20 // 1MiB
	if buf.Cap() > maxRetainedSize {
		return
	}
	buf.Reset()
	pool.Put(buf)
}
