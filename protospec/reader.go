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
	"context"
	"io"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/protospecd/protospecd/common"
)

// DefaultWatchdog 是单次底层拉取操作允许挂起的默认时长
//
// 抓包场景下对端可能永远不会再发送后续字节 (连接被撕裂、中间设备吞包等)
// 没有看门狗的话一次 Decode 调用就可能永久阻塞在某个 goroutine 上
const DefaultWatchdog = 300 * time.Millisecond

// Source 是 Reader 的底层字节来源
//
// Fill 应当阻塞直到至少读到 1 字节、遇到 io.EOF 或发生其他错误为止
// 它与标准库 io.Reader 同构 这里单独声明是为了在文档中明确这是一个
// "异步挂起点": 当数据尚未到达时 Fill 调用方会被 watchdog 接管
type Source interface {
	Fill(p []byte) (int, error)
}

// SourceFunc 将一个普通函数适配为 Source
type SourceFunc func(p []byte) (int, error)

// Fill 实现 Source 接口
func (f SourceFunc) Fill(p []byte) (int, error) { return f(p) }

// FromIOReader 将标准库 io.Reader 适配为 Source
func FromIOReader(r io.Reader) Source {
	return SourceFunc(r.Read)
}

// Marker 是游标位置的不透明快照 由 Reader.Mark 产出 只能传回同一个 Reader
type Marker struct {
	offset int
	depth  int
}

// ReaderOption 配置 Reader 的可选行为
type ReaderOption func(*Reader)

// WithWatchdog 设置单次底层拉取操作的超时时长 传入 <= 0 表示不设上限
func WithWatchdog(d time.Duration) ReaderOption {
	return func(r *Reader) { r.watchdog = d }
}

// WithInitialCapacity 设置缓冲区的初始容量
func WithInitialCapacity(n int) ReaderOption {
	return func(r *Reader) { r.initialCap = n }
}

// Reader 是一个支持 mark/reset 的缓冲读取器
//
// 它在内部维护一个 LIFO 的标记栈: 只要栈非空 底层缓冲区就不会被压缩
// 回收 这保证了 mark 之后读取的字节在对应的 reset 调用之前始终可寻址
// 压缩 (compaction) 本身只在标记栈清空后的消费路径上发生 一如
// splitio.Reader 对已消费行的处理方式
type Reader struct {
	src  Source
	buf  *bytebufferpool.ByteBuffer
	pos  int // buf.B 中下一次读取的起始偏移
	base int // buf.B[0] 对应的绝对偏移量
	eof  bool

	marks []int

	// line is 0-based; col is 1-based within the current line (matches the
	// error-reporting convention used throughout this package)
	line int
	col  int

	watchdog   time.Duration
	initialCap int
}

// NewReader 创建一个从 src 拉取字节的 Reader
func NewReader(src Source, opts ...ReaderOption) *Reader {
	r := &Reader{
		src:        src,
		watchdog:   DefaultWatchdog,
		initialCap: common.ReadWriteBlockSize,
		col:        1,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.buf = bytebufferpool.Get()
	if cap(r.buf.B) < r.initialCap {
		r.buf.B = make([]byte, 0, r.initialCap)
	}
	return r
}

// Release 将底层缓冲区归还给 bytebufferpool
//
// 调用方在一次消息处理结束、确认不再需要这个 Reader 之后调用
func (r *Reader) Release() {
	bytebufferpool.Put(r.buf)
	r.buf = nil
}

// Offset 返回当前游标相对于流起始位置的绝对字节偏移
func (r *Reader) Offset() int { return r.base + r.pos }

// Line 返回当前游标所在的行号 从 0 开始
func (r *Reader) Line() int { return r.line }

// Col 返回当前游标所在行内的列偏移 从 1 开始
func (r *Reader) Col() int { return r.col }

func (r *Reader) noteNewline() {
	r.line++
	r.col = 1
}

func (r *Reader) noteChars(n int) {
	r.col += n
}

func (r *Reader) available() int {
	return len(r.buf.B) - r.pos
}

func (r *Reader) peek() []byte {
	return r.buf.B[r.pos:]
}

// fill 向底层缓冲区追加一次底层 Fill 调用拉取到的数据
//
// 这是流读取中唯一的挂起点: 一次底层拉取迟迟不返回时 watchdog 会将其
// 转译为 EndOfStream 而不是让调用方无限期阻塞
func (r *Reader) fill(ctx context.Context) error {
	if r.eof {
		return newEndOfStream(r.line, r.col, "source already exhausted")
	}

	type result struct {
		n   int
		err error
	}
	resCh := make(chan result, 1)
	tmp := make([]byte, common.ReadWriteBlockSize)

	go func() {
		n, err := r.src.Fill(tmp)
		resCh <- result{n: n, err: err}
	}()

	if r.watchdog <= 0 {
		res := <-resCh
		return r.absorbFillResult(tmp, res.n, res.err)
	}

	timer := time.NewTimer(r.watchdog)
	defer timer.Stop()

	select {
	case res := <-resCh:
		return r.absorbFillResult(tmp, res.n, res.err)
	case <-timer.C:
		return newEndOfStream(r.line, r.col, "watchdog expired waiting for more data")
	case <-ctx.Done():
		return newEndOfStream(r.line, r.col, "context canceled waiting for more data")
	}
}

func (r *Reader) absorbFillResult(tmp []byte, n int, err error) error {
	if n > 0 {
		r.buf.Write(tmp[:n])
	}
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			r.eof = true
			if n > 0 {
				return nil
			}
			return newEndOfStream(r.line, r.col, "source reached io.EOF")
		}
		return newIoError(r.line, r.col, err)
	}
	if n == 0 {
		r.eof = true
		return newEndOfStream(r.line, r.col, "source returned zero bytes without error")
	}
	return nil
}

// ensure 持续拉取底层数据直到至少有 n 字节可用 或者返回错误
func (r *Reader) ensure(ctx context.Context, n int) error {
	for r.available() < n {
		if err := r.fill(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) consume(n int) {
	r.pos += n
	r.compact()
}

// compact 在没有任何存活标记时 丢弃游标之前已消费的字节腾出空间
//
// 标记栈非空时必须保持整段缓冲区可寻址 因此完全跳过压缩: 这比"压缩至
// 最老标记"更保守 但避免了部分压缩带来的偏移量重算复杂度
func (r *Reader) compact() {
	if len(r.marks) > 0 {
		return
	}
	if r.pos == 0 {
		return
	}
	if r.pos < len(r.buf.B)/2 {
		return
	}
	copy(r.buf.B, r.buf.B[r.pos:])
	r.buf.B = r.buf.B[:len(r.buf.B)-r.pos]
	r.base += r.pos
	r.pos = 0
}

// Mark 压入一个新的标记 返回的 Marker 只能传给 Reset 或 Unmark 且必须
// 按照 LIFO 次序 (后进先出) 配对使用
func (r *Reader) Mark() Marker {
	abs := r.base + r.pos
	r.marks = append(r.marks, abs)
	return Marker{offset: abs, depth: len(r.marks) - 1}
}

// Reset 将游标倒回至 m 被创建时的位置 并弹出对应的标记
//
// m 必须是标记栈最顶端的标记 否则返回 InvalidMarker
func (r *Reader) Reset(m Marker) error {
	if err := r.popMark(m); err != nil {
		return err
	}
	r.pos = m.offset - r.base
	return nil
}

// Unmark 弹出 m 对应的标记但不移动游标 表示这段区间已确认不再需要回退
func (r *Reader) Unmark(m Marker) error {
	return r.popMark(m)
}

func (r *Reader) popMark(m Marker) error {
	top := len(r.marks) - 1
	if top < 0 || m.depth != top || r.marks[top] != m.offset {
		return newInvalidMarker(r.line, r.col, "mark/reset must be used in LIFO order")
	}
	r.marks = r.marks[:len(r.marks)-1]
	return nil
}
