// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
// Faculty of Arts, Charles University
//
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

package qc

import "errors"

// Kinds of errors produced by the QC procedure. Concrete errors
// wrap one of these so callers can test them using errors.Is.
var (
	// ErrIO means a directory or a file is inaccessible
	ErrIO = errors.New("io error")

	// ErrDecode means a raw file cannot be parsed or it misses
	// expected spectral attributes
	ErrDecode = errors.New("decode error")

	// ErrConfig means invalid thresholds or group configuration
	ErrConfig = errors.New("config error")
)
