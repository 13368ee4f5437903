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

import "errors"

// ==================== 错误定义 Error Definitions ====================

var (
	// ErrNoDistro 未指定发行版
	// ErrNoDistro no distribution specified
	ErrNoDistro = errors.New("no distribution specified / 未指定发行版")

	// ErrNoSuchProcess 进程不存在
	// ErrNoSuchProcess the target process does not exist
	ErrNoSuchProcess = errors.New("no such process / 进程不存在")

	// ErrNotPermitted 无权限操作进程
	// ErrNotPermitted the operation on the process is not permitted
	ErrNotPermitted = errors.New("operation not permitted / 无权限操作进程")

	// ErrUnsupportedSignal 不支持的信号
	// ErrUnsupportedSignal the signal is not supported
	ErrUnsupportedSignal = errors.New("unsupported signal / 不支持的信号")
)
