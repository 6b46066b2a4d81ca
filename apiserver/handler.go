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

package apiserver

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/czcorpus/cnc-gokit/unireq"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/czcorpus/msqc/qc"
	"github.com/czcorpus/msqc/report"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, qc.ErrConfig):
		return http.StatusBadRequest
	case errors.Is(err, qc.ErrDecode):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (api *apiServer) handleVersion(ctx *gin.Context) {
	uniresp.WriteJSONResponse(ctx.Writer, api.version)
}

func (api *apiServer) handleListDatasets(ctx *gin.Context) {
	entries, err := os.ReadDir(api.conf.DataRootDir)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	ans := datasetList{Datasets: make([]datasetInfo, 0, len(entries))}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		item := datasetInfo{ID: entry.Name()}
		files, err := qc.ListRawFiles(
			filepath.Join(api.conf.DataRootDir, entry.Name()), api.conf.RawFileExt)
		if err == nil {
			item.NumFiles = len(files)
		}
		ans.Datasets = append(ans.Datasets, item)
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

// datasetDir returns a validated path of a dataset. In case of an error,
// the error response is already written.
func (api *apiServer) datasetDir(ctx *gin.Context) (string, bool) {
	datasetID := ctx.Param("datasetId")
	if datasetID == "" || strings.HasPrefix(datasetID, ".") || filepath.Base(datasetID) != datasetID {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("invalid dataset identifier"), http.StatusBadRequest,
		)
		return "", false
	}
	path := filepath.Join(api.conf.DataRootDir, datasetID)
	isDir, err := fs.IsDir(path)
	if errors.Is(err, os.ErrNotExist) {
		isDir, err = false, nil
	}
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return "", false
	}
	if !isDir {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("dataset %s not found", datasetID), http.StatusNotFound,
		)
		return "", false
	}
	return path, true
}

func (api *apiServer) runQC(ctx *gin.Context) (*qc.Result, qc.Settings, bool) {
	dir, ok := api.datasetDir(ctx)
	if !ok {
		return nil, qc.Settings{}, false
	}
	settings := api.conf.QCSettings(dir)
	settings.MaxNumConcurrentJobs, ok = unireq.GetURLIntArgOrFail(
		ctx, "maxNumConcurrentJobs", settings.MaxNumConcurrentJobs)
	if !ok {
		return nil, settings, false
	}
	res, err := qc.Run(ctx.Request.Context(), settings, api.source, nil)
	if err != nil {
		log.Error().Err(err).Str("dataset", ctx.Param("datasetId")).Msg("QC failed")
		uniresp.RespondWithErrorJSON(ctx, err, errorStatus(err))
		return nil, settings, false
	}
	return res, settings, true
}

func (api *apiServer) handleRunQC(ctx *gin.Context) {
	res, settings, ok := api.runQC(ctx)
	if !ok {
		return
	}
	datasetID := ctx.Param("datasetId")
	resp := qcResponse{
		Dataset: datasetID,
		Result:  res,
	}
	if ctx.Query("writeReport") == "1" {
		if api.conf.OutputDir == "" {
			uniresp.RespondWithErrorJSON(
				ctx, fmt.Errorf("outputDir not configured"), http.StatusConflict,
			)
			return
		}
		files, err := report.WriteAll(
			filepath.Join(api.conf.OutputDir, datasetID), api.conf.ReportName, res, settings)
		if err != nil {
			uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
			return
		}
		resp.Report = &files
	}
	uniresp.WriteJSONResponse(ctx.Writer, resp)
}

func (api *apiServer) handleReport(ctx *gin.Context) {
	res, settings, ok := api.runQC(ctx)
	if !ok {
		return
	}
	var buf bytes.Buffer
	params := report.NewParams(ctx.Param("datasetId"), res, settings)
	if err := report.RenderHTML(&buf, params); err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	ctx.Header("Content-Type", "text/html; charset=utf-8")
	ctx.String(http.StatusOK, buf.String())
}
