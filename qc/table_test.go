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

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/czcorpus/msqc/mzml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableBuilderSortsRows(t *testing.T) {
	src := newFakeSource()
	names := []string{"e.mzML", "b.mzML", "d.mzML", "a.mzML", "c.mzML"}
	paths := make([]string, len(names))
	for i, name := range names {
		src.addRun(name, float64(100+i), 10)
		paths[i] = "/data/" + name
	}
	var numDone atomic.Int32
	builder := &TableBuilder{
		Source:     src,
		OnFileDone: func(fm FileMetric) { numDone.Add(1) },
	}
	table, err := builder.Build(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, table.Rows, 5)
	for i, expected := range []string{"a.mzML", "b.mzML", "c.mzML", "d.mzML", "e.mzML"} {
		assert.Equal(t, expected, table.Rows[i].Filename)
	}
	assert.Equal(t, 103.0, table.Rows[0].MS1TIC)
	assert.Equal(t, int32(5), numDone.Load())
	assert.Equal(t, int32(5), src.calls.Load())
}

func TestTableBuilderWithLimit(t *testing.T) {
	src := newFakeSource()
	paths := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("f%02d.mzML", i)
		src.addRun(name, 100, 10)
		paths = append(paths, name)
	}
	builder := &TableBuilder{Source: src, MaxNumConcurrentJobs: 2}
	table, err := builder.Build(context.Background(), paths)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 8)
}

func TestTableBuilderFailFast(t *testing.T) {
	src := newFakeSource()
	src.addRun("ok.mzML", 100, 10)
	src.errs["bad.mzML"] = fmt.Errorf("failed to decode spectrum: %w", mzml.ErrMissingField)
	builder := &TableBuilder{Source: src}
	table, err := builder.Build(context.Background(), []string{"ok.mzML", "bad.mzML"})
	assert.Nil(t, table)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), "bad.mzML")
}

func TestTableBuilderDuplicateNames(t *testing.T) {
	src := newFakeSource()
	src.addRun("x.mzML", 100, 10)
	builder := &TableBuilder{Source: src}
	_, err := builder.Build(context.Background(), []string{"/a/x.mzML", "/b/x.mzML"})
	assert.ErrorIs(t, err, ErrConfig)
}
