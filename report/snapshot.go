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

package report

import (
	"bufio"
	"fmt"
	"os"

	"github.com/czcorpus/msqc/qc"
	"github.com/vmihailenco/msgpack/v5"
)

const snapshotVersion = 1

// Snapshot contains aggregated per-file metrics so the analysis
// can be repeated (e.g. with different thresholds) without reading
// raw files again.
type Snapshot struct {
	Version int             `msgpack:"version"`
	DataDir string          `msgpack:"dataDir"`
	Files   []qc.FileMetric `msgpack:"files"`
}

func WriteSnapshot(path string, snap Snapshot) error {
	snap.Version = snapshotVersion
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to create snapshot: %w", qc.ErrIO, err)
	}
	defer f.Close()
	wrt := bufio.NewWriter(f)
	if err := msgpack.NewEncoder(wrt).Encode(&snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := wrt.Flush(); err != nil {
		return fmt.Errorf("%w: failed to write snapshot: %w", qc.ErrIO, err)
	}
	return nil
}

func ReadSnapshot(path string) (Snapshot, error) {
	var ans Snapshot
	f, err := os.Open(path)
	if err != nil {
		return ans, fmt.Errorf("%w: failed to open snapshot: %w", qc.ErrIO, err)
	}
	defer f.Close()
	if err := msgpack.NewDecoder(bufio.NewReader(f)).Decode(&ans); err != nil {
		return ans, fmt.Errorf("%w: failed to decode snapshot %s: %w", qc.ErrDecode, path, err)
	}
	if ans.Version != snapshotVersion {
		return ans, fmt.Errorf(
			"%w: unsupported snapshot version %d", qc.ErrDecode, ans.Version)
	}
	return ans, nil
}
