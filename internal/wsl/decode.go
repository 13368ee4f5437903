/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package wsl

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// decodeConsoleOutput normalizes wsl.exe console bytes into a plain string.
// decodeConsoleOutput 将 wsl.exe 控制台字节归一化为普通字符串。
//
// Management subcommands (`wsl -l -v`, `wsl --version`) print UTF-16LE,
// while in-distro commands print UTF-8. UTF-16LE encoded ASCII shows up as
// interleaved NUL bytes, so the presence of NUL selects the decoder.
// 管理子命令（`wsl -l -v`、`wsl --version`）输出 UTF-16LE，而发行版内命令
// 输出 UTF-8。UTF-16LE 编码的 ASCII 表现为穿插的 NUL 字节，因此以 NUL 的
// 存在来选择解码器。
func decodeConsoleOutput(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	if bytes.IndexByte(b, 0) >= 0 {
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if decoded, err := decoder.Bytes(b); err == nil {
			b = decoded
		}
	}

	s := string(b)
	// Strip residual NULs and carriage returns / 去除残留的 NUL 与回车
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
