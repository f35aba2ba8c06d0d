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
	"bytes"
	"context"
)

// ReadLiteral 要求缓冲区接下来的字节与 lit 完全一致 匹配成功则消费 len(lit) 字节
func (r *Reader) ReadLiteral(ctx context.Context, lit []byte) ([]byte, error) {
	if err := r.ensure(ctx, len(lit)); err != nil {
		return nil, err
	}
	if !bytes.Equal(r.peek()[:len(lit)], lit) {
		return nil, newTokenExpected(r.line, r.col, "expected literal %q", lit)
	}
	r.consume(len(lit))
	return lit, nil
}

// ReadUntilAny 向前扫描直到遇到 delims 中的任意一个字面量 为止
//
// 返回的是该字面量*之前*的内容 扫描到的终止字面量本身不会被消费: 它
// 留给紧随其后的那个显式声明了该字面量的兄弟节点去匹配并消费 这样
// 复合节点中的每个子节点都只负责推进游标一次 不会出现重叠消费
func (r *Reader) ReadUntilAny(ctx context.Context, delims [][]byte) ([]byte, error) {
	for {
		buf := r.peek()
		if idx, ok := earliestMatch(buf, delims); ok {
			out := make([]byte, idx)
			copy(out, buf[:idx])
			r.consume(idx)
			return out, nil
		}
		if err := r.fill(ctx); err != nil {
			if isKind(err, EndOfStream) {
				return nil, newTokenExpected(r.line, r.col, "terminator not found before end of stream")
			}
			return nil, err
		}
	}
}

func earliestMatch(buf []byte, delims [][]byte) (int, bool) {
	best := -1
	for _, d := range delims {
		if len(d) == 0 {
			continue
		}
		if idx := bytes.Index(buf, d); idx >= 0 && (best == -1 || idx < best) {
			best = idx
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// ReadOneOf 依次尝试 alts 中的每个字面量 返回第一个匹配成功的
func (r *Reader) ReadOneOf(ctx context.Context, alts [][]byte) ([]byte, error) {
	for _, alt := range alts {
		m := r.Mark()
		b, err := r.ReadLiteral(ctx, alt)
		if err == nil {
			if uerr := r.Unmark(m); uerr != nil {
				return nil, uerr
			}
			return b, nil
		}
		if rerr := r.Reset(m); rerr != nil {
			return nil, rerr
		}
	}
	return nil, newTokenExpected(r.line, r.col, "no alternative matched")
}

// ReadN 读取固定 n 字节 数据源在凑够 n 字节之前耗尽则返回 EndOfStream
func (r *Reader) ReadN(ctx context.Context, n int) ([]byte, error) {
	if err := r.ensure(ctx, n); err != nil {
		if isKind(err, EndOfStream) {
			return nil, newEndOfStream(r.line, r.col, "stream ended before n bytes were available")
		}
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.peek()[:n])
	r.consume(n)
	return out, nil
}

// ReadRest 读取直到数据源报告 EndOfStream 为止的剩余全部字节
func (r *Reader) ReadRest(ctx context.Context) ([]byte, error) {
	for {
		if err := r.fill(ctx); err != nil {
			if isKind(err, EndOfStream) {
				break
			}
			return nil, err
		}
	}
	out := make([]byte, r.available())
	copy(out, r.peek())
	r.consume(len(out))
	return out, nil
}
