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

// Package cmd 定义了 protospecd 的命令行入口
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/protospecd/protospecd/common"
)

var rootCmd = &cobra.Command{
	Use:     common.App,
	Short:   "protospecd 是一个基于声明式协议规格引擎的流量解析代理",
	Version: common.Version,
}

// Execute 解析命令行参数并执行对应的子命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
