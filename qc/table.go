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
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// TableBuilder runs ExtractFileMetric concurrently over raw files
// and assembles the results into a MetricTable.
type TableBuilder struct {
	Source SpectrumSource

	// MaxNumConcurrentJobs limits the number of running extractions.
	// Zero means one worker per file.
	MaxNumConcurrentJobs int

	// OnFileDone is called from worker goroutines once a file
	// is processed so it must be safe for concurrent use.
	OnFileDone func(fm FileMetric)
}

// Build extracts all the files and waits for all the workers to finish.
// The first failure cancels the remaining extractions and is returned.
func (tb *TableBuilder) Build(ctx context.Context, paths []string) (*MetricTable, error) {
	results := make([]FileMetric, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	if tb.MaxNumConcurrentJobs > 0 {
		eg.SetLimit(tb.MaxNumConcurrentJobs)
	}
	for i, path := range paths {
		eg.Go(func() error {
			fm, err := ExtractFileMetric(egCtx, tb.Source, path)
			if err != nil {
				return err
			}
			results[i] = fm
			if tb.OnFileDone != nil {
				tb.OnFileDone(fm)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build metric table: %w", err)
	}
	log.Info().Int("numFiles", len(results)).Msg("all files extracted")
	table := NewMetricTable(results)
	if err := table.validateFilenames(); err != nil {
		return nil, err
	}
	return table, nil
}

func sortRows(rows []*Row) {
	slices.SortStableFunc(rows, func(a, b *Row) int {
		return strings.Compare(a.Filename, b.Filename)
	})
}

func (table *MetricTable) validateFilenames() error {
	for i := 1; i < len(table.Rows); i++ {
		if table.Rows[i].Filename == table.Rows[i-1].Filename {
			return fmt.Errorf("%w: duplicate file %s", ErrConfig, table.Rows[i].Filename)
		}
	}
	return nil
}
