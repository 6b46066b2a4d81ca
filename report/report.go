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
	"fmt"
	"os"
	"path/filepath"

	"github.com/czcorpus/msqc/qc"
	"github.com/rs/zerolog/log"
)

// Files lists paths of all the generated report artifacts
type Files struct {
	Workbook string `json:"workbook"`
	HTML     string `json:"html"`
	Snapshot string `json:"snapshot"`
}

func OutputFiles(outDir, reportName string) Files {
	return Files{
		Workbook: filepath.Join(outDir, reportName+"_ID-Free_QC_Report.xlsx"),
		HTML:     filepath.Join(outDir, reportName+"_ID-Free_QC_Report.html"),
		Snapshot: filepath.Join(outDir, reportName+"_ID-Free_Metrics.msgpack"),
	}
}

// WriteAll stores the workbook, the HTML report and the metrics snapshot
// into outDir (which is created if needed).
func WriteAll(outDir, reportName string, res *qc.Result, settings qc.Settings) (Files, error) {
	files := OutputFiles(outDir, reportName)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return files, fmt.Errorf("%w: failed to create output directory: %w", qc.ErrIO, err)
	}
	if err := WriteWorkbook(files.Workbook, res, settings); err != nil {
		return files, err
	}
	if err := WriteHTML(files.HTML, NewParams(reportName, res, settings)); err != nil {
		return files, err
	}
	snap := Snapshot{
		DataDir: settings.DataDir,
		Files:   res.Table.FileMetrics(),
	}
	if err := WriteSnapshot(files.Snapshot, snap); err != nil {
		return files, err
	}
	log.Info().
		Str("workbook", files.Workbook).
		Str("html", files.HTML).
		Str("snapshot", files.Snapshot).
		Msg("report written")
	return files, nil
}
