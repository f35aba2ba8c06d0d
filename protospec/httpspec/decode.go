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

package httpspec

import (
	"context"
	"io"

	"github.com/protospecd/protospecd/protospec"
)

// Request 是 RequestSpec 解码后的视图 从 *protospec.Store 中摘取调用方关心的字段
type Request struct {
	Method      string
	URI         string
	Version     string
	Headers     map[string]string
	HeaderOrder []string
	Body        []byte
}

// Response 是 ResponseSpec 解码后的视图
type Response struct {
	Version     string
	StatusCode  string
	Reason      string
	Headers     map[string]string
	HeaderOrder []string
	Body        []byte
}

// DecodeRequest 使用 RequestSpec 从 r 中解析出一个完整的请求
//
// r 必须在 body 读取完毕前不断产出字节 调用方需经由 ctx 自行控制超时 内部 Reader 使用默认的 DefaultWatchdog
func DecodeRequest(ctx context.Context, r io.Reader) (*Request, error) {
	root := RequestSpec()
	store := protospec.PreallocateStore(root)
	reader := protospec.NewReader(protospec.FromIOReader(r))

	if err := protospec.Decode(ctx, root, reader, store); err != nil {
		return nil, err
	}

	req := &Request{
		Headers:     map[string]string{},
		HeaderOrder: HeaderKeys(store),
	}
	if v, ok := store.GetInfo("request_method"); ok {
		req.Method = v.Str
	}
	if v, ok := store.GetInfo("request_uri"); ok {
		req.URI = v.Str
	}
	if v, ok := store.GetInfo("protocol_version"); ok {
		req.Version = v.Str
	}
	if v, ok := store.GetInfo("body"); ok {
		req.Body = v.RawBytes()
	}
	for _, key := range req.HeaderOrder {
		if v, ok := store.GetInfo(key); ok {
			req.Headers[key] = v.Str
		}
	}
	return req, nil
}

// DecodeResponse 使用 ResponseSpec 从 r 中解析出一个完整的响应
func DecodeResponse(ctx context.Context, r io.Reader) (*Response, error) {
	root := ResponseSpec()
	store := protospec.PreallocateStore(root)
	reader := protospec.NewReader(protospec.FromIOReader(r))

	if err := protospec.Decode(ctx, root, reader, store); err != nil {
		return nil, err
	}

	resp := &Response{
		Headers:     map[string]string{},
		HeaderOrder: HeaderKeys(store),
	}
	if v, ok := store.GetInfo("protocol_version"); ok {
		resp.Version = v.Str
	}
	if v, ok := store.GetInfo("status_code"); ok {
		resp.StatusCode = v.Str
	}
	if v, ok := store.GetInfo("reason_phrase"); ok {
		resp.Reason = v.Str
	}
	if v, ok := store.GetInfo("body"); ok {
		resp.Body = v.RawBytes()
	}
	for _, key := range resp.HeaderOrder {
		if v, ok := store.GetInfo(key); ok {
			resp.Headers[key] = v.Str
		}
	}
	return resp, nil
}

// EncodeRequest 将 req 按 RequestSpec 写入 sink 供往返测试或回放场景使用
func EncodeRequest(req *Request, sink protospec.Sink) error {
	root := RequestSpec()
	store := protospec.NewStore()
	store.AddInfo("request_method", protospec.StringValue(req.Method))
	store.AddInfo("request_uri", protospec.StringValue(req.URI))
	store.AddInfo("protocol_version", protospec.StringValue(req.Version))
	store.AddInfo("body", protospec.BytesValue(req.Body))
	for _, key := range req.HeaderOrder {
		store.AddInfo(key, protospec.StringValue(req.Headers[key]))
		store.AddGroupKey(headersGroup, key)
	}
	return protospec.Encode(root, store, sink)
}
