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

package cnf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/msqc/qc"
	"github.com/rs/zerolog/log"
)

const (
	dfltServerReadTimeoutSecs  = 30
	dfltServerWriteTimeoutSecs = 600
	dfltListenAddress          = "localhost"
	dfltListenPort             = 8080
	dfltReportName             = "msqc"
	dfltLogLevel               = "info"
)

type Conf struct {
	srcPath string
	Logging logging.LoggingConf `json:"logging"`

	// RawFileExt is the extension of processed raw files
	// (including the leading dot).
	RawFileExt string `json:"rawFileExt"`

	OutputDir  string `json:"outputDir"`
	ReportName string `json:"reportName"`

	ZScoreThreshold float64 `json:"zScoreThreshold"`

	// MaxNumConcurrentJobs limits number of files decoded in parallel.
	// Zero means no limit.
	MaxNumConcurrentJobs int `json:"maxNumConcurrentJobs"`

	Thresholds          qc.ThresholdConfig `json:"thresholds"`
	GroupwiseComparison bool               `json:"groupwiseComparison"`
	Groups              qc.GroupAssignment `json:"groups"`

	ListenAddress          string   `json:"listenAddress"`
	ListenPort             int      `json:"listenPort"`
	ServerReadTimeoutSecs  int      `json:"serverReadTimeoutSecs"`
	ServerWriteTimeoutSecs int      `json:"serverWriteTimeoutSecs"`
	CorsAllowedOrigins     []string `json:"corsAllowedOrigins"`

	// DataRootDir is a directory containing datasets (one subdirectory
	// per dataset) available via the HTTP API
	DataRootDir string `json:"dataRootDir"`
}

// SrcPath returns a path the configuration has been loaded from
func (conf *Conf) SrcPath() string {
	return conf.srcPath
}

// QCSettings creates QC procedure settings for the data directory
func (conf *Conf) QCSettings(dataDir string) qc.Settings {
	return qc.Settings{
		DataDir:              dataDir,
		RawFileExt:           conf.RawFileExt,
		Thresholds:           conf.Thresholds,
		GroupwiseComparison:  conf.GroupwiseComparison,
		Groups:               conf.Groups,
		ZScoreThreshold:      conf.ZScoreThreshold,
		MaxNumConcurrentJobs: conf.MaxNumConcurrentJobs,
	}
}

func loadConfig(path string) (*Conf, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: config path not specified", qc.ErrConfig)
	}
	rawData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot load config: %w", qc.ErrConfig, err)
	}
	conf := &Conf{srcPath: path}
	if err := json.Unmarshal(rawData, conf); err != nil {
		return nil, fmt.Errorf("%w: cannot parse config %s: %w", qc.ErrConfig, path, err)
	}
	return conf, nil
}

// LoadConfig loads a JSON configuration. In case of an error,
// the program exits.
func LoadConfig(path string) *Conf {
	conf, err := loadConfig(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	return conf
}

// ValidateAndDefaults fills in default values of missing items
// and validates the QC settings so that invalid configuration
// is reported before any data is read.
func ValidateAndDefaults(conf *Conf) error {
	if conf.Logging.Level == "" {
		conf.Logging.Level = dfltLogLevel
	}
	if conf.RawFileExt == "" {
		conf.RawFileExt = qc.DefaultRawFileExt
		log.Warn().
			Str("rawFileExt", conf.RawFileExt).
			Msg("rawFileExt not specified, using default")
	}
	if conf.ZScoreThreshold == 0 {
		conf.ZScoreThreshold = qc.DefaultZScoreThreshold
		log.Warn().
			Float64("zScoreThreshold", conf.ZScoreThreshold).
			Msg("zScoreThreshold not specified, using default")
	}
	if conf.ReportName == "" {
		conf.ReportName = dfltReportName
		log.Warn().Str("reportName", conf.ReportName).Msg("reportName not specified, using default")
	}
	if conf.OutputDir != "" {
		isDir, err := fs.IsDir(conf.OutputDir)
		if err != nil {
			return fmt.Errorf("%w: failed to check outputDir: %w", qc.ErrConfig, err)
		}
		if !isDir {
			return fmt.Errorf("%w: outputDir %s is not a directory", qc.ErrConfig, conf.OutputDir)
		}
	}
	if conf.ListenAddress == "" {
		conf.ListenAddress = dfltListenAddress
	}
	if conf.ListenPort == 0 {
		conf.ListenPort = dfltListenPort
	}
	if conf.ServerReadTimeoutSecs == 0 {
		conf.ServerReadTimeoutSecs = dfltServerReadTimeoutSecs
	}
	if conf.ServerWriteTimeoutSecs == 0 {
		conf.ServerWriteTimeoutSecs = dfltServerWriteTimeoutSecs
		log.Warn().Msgf(
			"serverWriteTimeoutSecs not specified, using default: %d",
			dfltServerWriteTimeoutSecs,
		)
	}
	if conf.DataRootDir != "" && !filepath.IsAbs(conf.DataRootDir) {
		return fmt.Errorf("%w: dataRootDir must be an absolute path", qc.ErrConfig)
	}
	return conf.QCSettings("").Validate()
}
