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
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/msqc/apiserver"
	"github.com/czcorpus/msqc/cnf"
	"github.com/czcorpus/msqc/mzml"
	"github.com/fatih/color"
)

const (
	actionRun       = "run"
	actionReanalyze = "reanalyze"
	actionShell     = "shell"
	actionServer    = "server"
	actionVersion   = "version"
	actionHelp      = "help"
)

const (
	exitErrorGeneralFailure = iota + 1
	exitErrorInvalidConfig
	exitErrorQCFailed
	exitErrorReportFailed
	exitErrorShellFailed
)

var (
	version   string
	buildDate string
	gitCommit string
)

func topLevelUsage() {
	fmt.Fprintf(os.Stderr, "MSQC - identification-free QC of mass spectrometry runs\n")
	fmt.Fprintf(os.Stderr, "-----------------------------\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "\t%s\t\t\tshow version info\n", actionVersion)
	fmt.Fprintf(os.Stderr, "\t%s\t\t\tprocess a directory of mzML files and write QC report\n", actionRun)
	fmt.Fprintf(os.Stderr, "\t%s\t\trepeat analysis using a stored metrics snapshot\n", actionReanalyze)
	fmt.Fprintf(os.Stderr, "\t%s\t\t\tinteractively tune thresholds over a metrics snapshot\n", actionShell)
	fmt.Fprintf(os.Stderr, "\t%s\t\t\trun HTTP API server\n", actionServer)
	fmt.Fprintf(os.Stderr, "\nUse `msqc help ACTION` for information about a specific action\n\n")
}

func setup(confPath string) *cnf.Conf {
	conf := cnf.LoadConfig(confPath)
	logging.SetupLogging(conf.Logging)
	if err := cnf.ValidateAndDefaults(conf); err != nil {
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(exitErrorInvalidConfig)
	}
	return conf
}

func runActionVersion(ver cnf.VersionInfo) {
	fmt.Fprintf(
		os.Stderr,
		"MSQC version: %s (build date: %s, last commit: %s)\n",
		ver.Version, ver.BuildDate, ver.GitCommit,
	)
}

func main() {
	version := cnf.NewVersionInfo(version, buildDate, gitCommit)

	cmdRun := flag.NewFlagSet(actionRun, flag.ExitOnError)
	runOutDir := cmdRun.String("out-dir", "", "output directory (overrides outputDir from config)")
	runReportName := cmdRun.String("report-name", "", "report name (overrides reportName from config)")
	runNoReport := cmdRun.Bool("no-report", false, "if set, only QC status is printed and no report files are written")
	cmdRun.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] config.json data_dir\n\t",
			filepath.Base(os.Args[0]), actionRun)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdRun.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nProcess all raw files in data_dir, print QC status and write reports\n")
	}

	cmdReanalyze := flag.NewFlagSet(actionReanalyze, flag.ExitOnError)
	reanOutDir := cmdReanalyze.String("out-dir", "", "output directory (overrides outputDir from config)")
	reanReportName := cmdReanalyze.String("report-name", "", "report name (overrides reportName from config)")
	cmdReanalyze.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] config.json metrics.msgpack\n\t",
			filepath.Base(os.Args[0]), actionReanalyze)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdReanalyze.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nRepeat the analysis (e.g. with changed thresholds) without reading raw files\n")
	}

	cmdShell := flag.NewFlagSet(actionShell, flag.ExitOnError)
	cmdShell.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s config.json metrics.msgpack\n\t",
			filepath.Base(os.Args[0]), actionShell)
		fmt.Fprintf(os.Stderr, "\nInteractively change thresholds and review QC status\n")
	}

	cmdServer := flag.NewFlagSet(actionServer, flag.ExitOnError)
	cmdServer.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s config.json\n\t",
			filepath.Base(os.Args[0]), actionServer)
		fmt.Fprintf(os.Stderr, "\nRun MSQC as an HTTP API server processing datasets in dataRootDir\n")
	}

	cmdVersion := flag.NewFlagSet(actionVersion, flag.ExitOnError)
	cmdVersion.Usage = func() {
		cmdVersion.PrintDefaults()
	}

	cmdHelp := flag.NewFlagSet(actionHelp, flag.ExitOnError)

	action := actionHelp
	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	switch action {
	case actionHelp:
		var subj string
		if len(os.Args) > 2 {
			cmdHelp.Parse(os.Args[2:])
			subj = cmdHelp.Arg(0)
		}
		switch subj {
		case actionRun:
			cmdRun.Usage()
		case actionReanalyze:
			cmdReanalyze.Usage()
		case actionShell:
			cmdShell.Usage()
		case actionServer:
			cmdServer.Usage()
		default:
			topLevelUsage()
		}
	case actionVersion:
		cmdVersion.Parse(os.Args[2:])
		runActionVersion(version)
	case actionRun:
		cmdRun.Parse(os.Args[2:])
		if cmdRun.NArg() != 2 {
			cmdRun.Usage()
			os.Exit(exitErrorGeneralFailure)
		}
		conf := setup(cmdRun.Arg(0))
		overrideOutput(conf, *runOutDir, *runReportName)
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		runActionRun(ctx, conf, cmdRun.Arg(1), !*runNoReport)
	case actionReanalyze:
		cmdReanalyze.Parse(os.Args[2:])
		if cmdReanalyze.NArg() != 2 {
			cmdReanalyze.Usage()
			os.Exit(exitErrorGeneralFailure)
		}
		conf := setup(cmdReanalyze.Arg(0))
		overrideOutput(conf, *reanOutDir, *reanReportName)
		runActionReanalyze(conf, cmdReanalyze.Arg(1))
	case actionShell:
		cmdShell.Parse(os.Args[2:])
		if cmdShell.NArg() != 2 {
			cmdShell.Usage()
			os.Exit(exitErrorGeneralFailure)
		}
		conf := setup(cmdShell.Arg(0))
		runActionShell(conf, cmdShell.Arg(1))
	case actionServer:
		cmdServer.Parse(os.Args[2:])
		conf := setup(cmdServer.Arg(0))
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		apiserver.Run(ctx, conf, version, mzml.FileReader{})
	default:
		fmt.Fprintf(os.Stderr, "Unknown action, please use 'help' to get more information\n")
		os.Exit(exitErrorGeneralFailure)
	}
}
