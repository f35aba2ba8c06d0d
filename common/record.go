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

package common

import (
	"github.com/protospecd/protospecd/internal/metricstorage"
)

// RecordType 标识 Record 承载的数据类型
type RecordType string

const (
	RecordRoundTrips RecordType = "roundtrips"
	RecordMetrics    RecordType = "metrics"
	RecordTraces     RecordType = "traces"
)

// Record Pipeline 中流转的通用数据包裹
//
// Data 的具体类型由 RecordType 决定 处理链路中的各个 Processor 按需断言
type Record struct {
	RecordType RecordType
	Data       any
}

// NewRecord 创建并返回一个 *Record 实例
func NewRecord(rt RecordType, data any) *Record {
	return &Record{
		RecordType: rt,
		Data:       data,
	}
}

// MetricsData 承载 metrics 类型的 Record 数据
type MetricsData struct {
	Data []metricstorage.ConstMetric
}

// TracesData 承载 traces 类型的 Record 数据
type TracesData struct {
	Data any
}
