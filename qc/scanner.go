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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ListRawFiles returns paths of files in dir with the extension ext
// (case sensitive, e.g. ".mzML"), sorted by their names.
// Other entries are skipped.
func ListRawFiles(dir, ext string) ([]string, error) {
	log.Info().Str("dir", dir).Msg("getting list of raw files")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []string{}, fmt.Errorf("%w: failed to list raw files directory: %w", ErrIO, err)
	}
	ans := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			log.Info().
				Str("entry", entry.Name()).
				Str("expectedExt", ext).
				Msg("entry is not a raw data file and will not be used for data extraction")
			continue
		}
		ans = append(ans, filepath.Join(dir, entry.Name()))
	}
	// os.ReadDir sorts entries by name, so ans is sorted as well
	if len(ans) == 0 {
		return ans, fmt.Errorf("%w: no %s files found in %s", ErrIO, ext, dir)
	}
	log.Info().
		Int("numFiles", len(ans)).
		Str("dir", dir).
		Msg("found raw data files")
	return ans, nil
}
