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

package process

import "errors"

// Error definitions for process monitoring operations.
var (
	// ErrProcessNotFound indicates the target PID is not in the process table.
	ErrProcessNotFound = errors.New("process: process not found")
	// ErrProcessProtected indicates the process may not be force-killed.
	ErrProcessProtected = errors.New("process: protected system process cannot be force killed")
	// ErrInvalidSignal indicates an unsupported signal name.
	ErrInvalidSignal = errors.New("process: signal must be SIGTERM or SIGKILL")
	// ErrInvalidPID indicates a non-positive PID.
	ErrInvalidPID = errors.New("process: pid must be positive")
	// ErrStillRunning indicates the process survived the kill attempt.
	ErrStillRunning = errors.New("process: process is still running after signal")
	// ErrHistoryDisabled indicates history persistence is turned off.
	ErrHistoryDisabled = errors.New("process: history persistence is disabled")
)
