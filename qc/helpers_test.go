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
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/czcorpus/msqc/mzml"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	spectra map[string][]mzml.Spectrum
	errs    map[string]error
	calls   atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		spectra: make(map[string][]mzml.Spectrum),
		errs:    make(map[string]error),
	}
}

func (src *fakeSource) ReadSpectra(ctx context.Context, path string, fn func(mzml.Spectrum) error) error {
	src.calls.Add(1)
	name := filepath.Base(path)
	if err, ok := src.errs[name]; ok {
		return err
	}
	for _, s := range src.spectra[name] {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

// addRun registers a file with two MS1 spectra (summing to ms1TIC),
// four MS2 spectra with TIC 10 each and the specified base peak.
func (src *fakeSource) addRun(name string, ms1TIC, basePeak float64) {
	src.spectra[name] = []mzml.Spectrum{
		{ID: "s1", MSLevel: 1, TotalIonCurrent: ms1TIC / 2, HasTIC: true, BasePeakIntensity: basePeak},
		{ID: "s2", MSLevel: 2, TotalIonCurrent: 10, HasTIC: true, BasePeakIntensity: basePeak / 2},
		{ID: "s3", MSLevel: 2, TotalIonCurrent: 10, HasTIC: true, BasePeakIntensity: basePeak / 3},
		{ID: "s4", MSLevel: 1, TotalIonCurrent: ms1TIC / 2, HasTIC: true, BasePeakIntensity: basePeak / 4},
		{ID: "s5", MSLevel: 2, TotalIonCurrent: 10, HasTIC: true, BasePeakIntensity: basePeak / 5},
		{ID: "s6", MSLevel: 2, TotalIonCurrent: 10, HasTIC: true, BasePeakIntensity: basePeak / 6},
	}
}

// touchFiles creates empty files so they can be found by ListRawFiles
func touchFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{}, 0644))
	}
}

func ptr(v float64) *float64 {
	return &v
}
