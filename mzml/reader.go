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

package mzml

import (
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// PSI-MS controlled vocabulary accessions we read from spectra
const (
	cvMSLevel           = "MS:1000511"
	cvTotalIonCurrent   = "MS:1000285"
	cvBasePeakIntensity = "MS:1000505"

	readBufferSize = 1024 * 1024
)

var (
	ErrNotMzML       = errors.New("mzML: no mzML root element found")
	ErrMissingField  = errors.New("mzML: spectrum is missing a required cvParam")
	ErrInvalidNumber = errors.New("mzML: invalid numeric cvParam value")
)

// Spectrum contains the spectrum-level attributes needed for QC.
// Peak data (binary arrays) are skipped.
type Spectrum struct {
	Index             int
	ID                string
	MSLevel           int
	BasePeakIntensity float64

	// TotalIonCurrent is valid only if HasTIC is true
	TotalIonCurrent float64
	HasTIC          bool
}

type cvParam struct {
	Accession string `xml:"accession,attr"`
	Name      string `xml:"name,attr"`
	Value     string `xml:"value,attr"`
}

type xmlSpectrum struct {
	Index int       `xml:"index,attr"`
	ID    string    `xml:"id,attr"`
	CvPar []cvParam `xml:"cvParam"`
}

// parseIntensity accepts finite numbers only
func parseIntensity(v string) (float64, error) {
	ans, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(ans) || math.IsInf(ans, 0) {
		return 0, fmt.Errorf("non-finite value %s", v)
	}
	return ans, nil
}

func (xs *xmlSpectrum) toSpectrum() (Spectrum, error) {
	ans := Spectrum{Index: xs.Index, ID: xs.ID}
	var hasLevel, hasBasePeak bool
	for _, par := range xs.CvPar {
		switch par.Accession {
		case cvMSLevel:
			v, err := strconv.Atoi(par.Value)
			if err != nil {
				return ans, fmt.Errorf("%w: %s = %q (spectrum %s)", ErrInvalidNumber, par.Name, par.Value, xs.ID)
			}
			ans.MSLevel = v
			hasLevel = true
		case cvTotalIonCurrent:
			v, err := parseIntensity(par.Value)
			if err != nil {
				return ans, fmt.Errorf("%w: %s = %q (spectrum %s)", ErrInvalidNumber, par.Name, par.Value, xs.ID)
			}
			ans.TotalIonCurrent = v
			ans.HasTIC = true
		case cvBasePeakIntensity:
			v, err := parseIntensity(par.Value)
			if err != nil {
				return ans, fmt.Errorf("%w: %s = %q (spectrum %s)", ErrInvalidNumber, par.Name, par.Value, xs.ID)
			}
			ans.BasePeakIntensity = v
			hasBasePeak = true
		}
	}
	if !hasLevel {
		return ans, fmt.Errorf("%w: ms level (spectrum %s)", ErrMissingField, xs.ID)
	}
	if !hasBasePeak {
		return ans, fmt.Errorf("%w: base peak intensity (spectrum %s)", ErrMissingField, xs.ID)
	}
	return ans, nil
}

// ReadSpectra streams spectra from an mzML (or indexedmzML) document
// in document order and calls fn for each of them. Reading stops
// on the first error returned by fn or when ctx is cancelled.
func ReadSpectra(ctx context.Context, src io.Reader, fn func(Spectrum) error) error {
	dec := xml.NewDecoder(src)
	var rootFound bool
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read mzML document: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "mzML":
			rootFound = true
		case "spectrum":
			if !rootFound {
				return ErrNotMzML
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			var xs xmlSpectrum
			if err := dec.DecodeElement(&xs, &se); err != nil {
				return fmt.Errorf("failed to decode spectrum: %w", err)
			}
			spec, err := xs.toSpectrum()
			if err != nil {
				return err
			}
			if err := fn(spec); err != nil {
				return err
			}
		}
	}
	if !rootFound {
		return ErrNotMzML
	}
	return nil
}

// FileReader reads spectra from mzML files stored on a local filesystem
type FileReader struct{}

func (r FileReader) ReadSpectra(ctx context.Context, path string, fn func(Spectrum) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open mzML file: %w", err)
	}
	defer f.Close()
	return ReadSpectra(ctx, bufio.NewReaderSize(f, readBufferSize), fn)
}
