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

// Package wait 提供一个最小化的 "不断重复直到取消" 循环助手
package wait

import "context"

// Until 不断调用 fn 直到 ctx 被取消
//
// fn 自身负责阻塞等待下一项工作（如从一个队列中 PopTimeout）
// Until 只负责在 ctx 取消时结束循环 不引入额外的节流或退避
func Until(ctx context.Context, fn func()) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			fn()
		}
	}
}
