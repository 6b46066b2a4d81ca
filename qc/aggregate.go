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
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/czcorpus/msqc/mzml"
	"github.com/rs/zerolog/log"
)

// SpectrumSource streams spectra of a raw data file
type SpectrumSource interface {
	ReadSpectra(ctx context.Context, path string, fn func(mzml.Spectrum) error) error
}

// ExtractFileMetric reduces all the spectra of a raw file into a single
// FileMetric record. For files without MS1 spectra, the MS2/MS1 ratio
// is defined as zero.
func ExtractFileMetric(ctx context.Context, src SpectrumSource, path string) (FileMetric, error) {
	ans := FileMetric{Filename: filepath.Base(path)}
	log.Info().Str("file", ans.Filename).Msg("extracting file")
	var numSpectra int
	err := src.ReadSpectra(ctx, path, func(spec mzml.Spectrum) error {
		if numSpectra == 0 || spec.BasePeakIntensity > ans.MaxBasepeakIntensity {
			ans.MaxBasepeakIntensity = spec.BasePeakIntensity
		}
		numSpectra++
		switch spec.MSLevel {
		case 1:
			if !spec.HasTIC {
				return fmt.Errorf("%w: total ion current (spectrum %s)", mzml.ErrMissingField, spec.ID)
			}
			ans.MS1Spectra++
			ans.MS1TIC += spec.TotalIonCurrent
		case 2:
			if !spec.HasTIC {
				return fmt.Errorf("%w: total ion current (spectrum %s)", mzml.ErrMissingField, spec.ID)
			}
			ans.MS2Spectra++
			ans.MS2TIC += spec.TotalIonCurrent
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ans, fmt.Errorf("extraction of %s interrupted: %w", ans.Filename, ctxErr)
		}
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return ans, fmt.Errorf("%w: failed to read %s: %w", ErrIO, ans.Filename, err)
		}
		return ans, fmt.Errorf("%w: failed to extract %s: %w", ErrDecode, ans.Filename, err)
	}
	if numSpectra == 0 {
		return ans, fmt.Errorf("%w: no spectra found in %s", ErrDecode, ans.Filename)
	}
	if ans.MS1Spectra > 0 {
		ans.SpectraRatio = float64(ans.MS2Spectra) / float64(ans.MS1Spectra)

	} else {
		log.Warn().
			Str("file", ans.Filename).
			Int("ms2Spectra", ans.MS2Spectra).
			Msg("no MS1 spectra found, MS2/MS1 ratio set to 0")
	}
	log.Debug().
		Str("file", ans.Filename).
		Int("ms1Spectra", ans.MS1Spectra).
		Int("ms2Spectra", ans.MS2Spectra).
		Float64("ms1Tic", ans.MS1TIC).
		Float64("ms2Tic", ans.MS2TIC).
		Msg("file extracted")
	return ans, nil
}
