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

// Package mapstructure 对 mitchellh/mapstructure 做了一层薄封装
//
// Processor 的配置是以 map[string]any 的形式从 confengine 传递下来的
// 这里统一解码规则（弱类型转换 + `mapstructure` tag）避免各处重复声明 decoder hooks
package mapstructure

import (
	"github.com/mitchellh/mapstructure"
)

// Decode 将 input 解码至 output 指向的结构体
//
// 启用弱类型转换 允许诸如 string -> int、string -> time.Duration 等常见的隐式转换
func Decode(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           output,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
