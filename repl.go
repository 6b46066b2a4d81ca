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

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/czcorpus/msqc/cnf"
	"github.com/czcorpus/msqc/qc"
	"github.com/czcorpus/msqc/report"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
)

const noThreshold = "none"

func ensureConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(homeDir, ".config", "msqc")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}

func parseOptThreshold(v string) (*float64, error) {
	if v == noThreshold {
		return nil, nil
	}
	ans, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %s", v)
	}
	return &ans, nil
}

// applySetCommand changes settings according to a `set <key> <value>`
// shell command (args are the items following `set`). Settings are
// validated before they are applied.
func applySetCommand(settings *qc.Settings, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set <key> <value>")
	}
	updated := *settings
	var err error
	switch strings.ToLower(args[0]) {
	case "ms1tic":
		updated.Thresholds.MS1TIC, err = parseOptThreshold(args[1])
	case "ms2tic":
		updated.Thresholds.MS2TIC, err = parseOptThreshold(args[1])
	case "ms1spectra":
		updated.Thresholds.MS1Spectra, err = parseOptThreshold(args[1])
	case "ms2spectra":
		updated.Thresholds.MS2Spectra, err = parseOptThreshold(args[1])
	case "maxbp":
		updated.Thresholds.MaxBasepeakIntensity, err = parseOptThreshold(args[1])
	case "ticcv":
		updated.Thresholds.TICCV, err = strconv.ParseFloat(args[1], 64)
	case "zscore":
		updated.ZScoreThreshold, err = strconv.ParseFloat(args[1], 64)
	case "groups":
		updated.GroupwiseComparison, err = strconv.ParseBool(args[1])
	default:
		return fmt.Errorf("unknown key %s", args[0])
	}
	if err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	*settings = updated
	return nil
}

func formatOptThreshold(v *float64) string {
	if v == nil {
		return noThreshold
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func printSetup(w io.Writer, settings qc.Settings) {
	fmt.Fprintf(w, "%s:\t\t%s\n", titleColor("ms1tic"), formatOptThreshold(settings.Thresholds.MS1TIC))
	fmt.Fprintf(w, "%s:\t\t%s\n", titleColor("ms2tic"), formatOptThreshold(settings.Thresholds.MS2TIC))
	fmt.Fprintf(w, "%s:\t%s\n", titleColor("ms1spectra"), formatOptThreshold(settings.Thresholds.MS1Spectra))
	fmt.Fprintf(w, "%s:\t%s\n", titleColor("ms2spectra"), formatOptThreshold(settings.Thresholds.MS2Spectra))
	fmt.Fprintf(w, "%s:\t\t%s\n", titleColor("maxbp"), formatOptThreshold(settings.Thresholds.MaxBasepeakIntensity))
	fmt.Fprintf(w, "%s:\t\t%.2f\n", titleColor("ticcv"), settings.Thresholds.TICCV)
	fmt.Fprintf(w, "%s:\t\t%.2f\n", titleColor("zscore"), settings.ZScoreThreshold)
	fmt.Fprintf(w, "%s:\t\t%t\n", titleColor("groups"), settings.GroupwiseComparison)
}

func printShellHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                    - analyze metrics using current settings")
	fmt.Fprintln(w, "  set <key> <value>      - change a setting (use 'none' to remove a threshold)")
	fmt.Fprintln(w, "                           keys: ms1tic, ms2tic, ms1spectra, ms2spectra, maxbp,")
	fmt.Fprintln(w, "                           ticcv, zscore, groups")
	fmt.Fprintln(w, "  setup                  - view current settings")
	fmt.Fprintln(w, "  files                  - list aggregated metrics of all files")
	fmt.Fprintln(w, "  save                   - write report files using current settings")
	fmt.Fprintln(w, "  exit                   - exit shell")
}

func printFiles(w io.Writer, files []qc.FileMetric) {
	headers := []string{"Filename"}
	for _, m := range qc.AllMetrics {
		headers = append(headers, m.String())
	}
	rows := make([][]string, len(files))
	for i, fm := range files {
		row := []string{fm.Filename}
		for _, m := range qc.AllMetrics {
			row = append(row, strconv.FormatFloat(fm.Value(m), 'g', 6, 64))
		}
		rows[i] = row
	}
	fmt.Fprintln(w, statusTable(headers, rows))
}

func runActionShell(conf *cnf.Conf, snapshotPath string) {
	snap, err := report.ReadSnapshot(snapshotPath)
	if err != nil {
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(exitErrorShellFailed)
	}
	settings := conf.QCSettings(snap.DataDir)

	fmt.Printf("MSQC shell - %d files loaded from %s\n", len(snap.Files), snapshotPath)
	printShellHelp(os.Stdout)

	var historyFile string
	historyDir, err := ensureConfigDir()
	if err != nil {
		log.Error().Err(err).Msg("failed to determine user config directory - falling back to session-local history")

	} else {
		historyFile = filepath.Join(historyDir, "shell-history.txt")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      color.New(color.FgHiGreen).Sprintf("/msqc> "),
		HistoryFile: historyFile,
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		os.Exit(exitErrorShellFailed)
	}
	defer rl.Close()

	var lastResult *qc.Result
	var lastSettings qc.Settings
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}
		input := strings.TrimSpace(line)
		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "exit":
			fmt.Println("Bye!")
			return
		case "help":
			printShellHelp(os.Stdout)
		case "setup":
			printSetup(os.Stdout, settings)
		case "set":
			if err := applySetCommand(&settings, fields[1:]); err != nil {
				color.New(errColor).Println(err)
			}
		case "files":
			printFiles(os.Stdout, snap.Files)
		case "run":
			lastResult, err = qc.Analyze(qc.NewMetricTable(snap.Files), settings)
			if err != nil {
				color.New(errColor).Println(err)
				continue
			}
			lastSettings = settings
			printResult(os.Stdout, lastResult)
		case "save":
			if lastResult == nil {
				color.New(errColor).Println("nothing to save, use 'run' first")
				continue
			}
			files, err := report.WriteAll(outputDir(conf), conf.ReportName, lastResult, lastSettings)
			if err != nil {
				color.New(errColor).Println(err)
				continue
			}
			fmt.Printf("report saved to %s\n", files.HTML)
		default:
			fmt.Println("Unknown command, use 'help' to list available commands")
		}
	}
}
