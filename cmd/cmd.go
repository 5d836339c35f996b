/*
	Photostat
	Copyright (c) 2025 Photostat Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package pscmd facilitates the command line interface (CLI)
// and implements the main().
package pscmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/photostat/photostat/observatory"
	"github.com/photostat/photostat/psapp"
	"go.uber.org/zap"
)

func Main() {
	var (
		configPath = flag.String("config", "", "path to the JSON config file")
		baseFolder = flag.String("base", "", "year/month archive to scan")
		startDate  = flag.String("start", "", "ignore captures before this YYYYMMDD date")
		minYear    = flag.Int("min-year", 0, "lowest year folder to visit (inclusive)")
		maxYear    = flag.Int("max-year", 0, "highest year folder to visit (inclusive)")
		outputDir  = flag.String("output", "", "directory for the CSV, HTML, and run log")
		hashing    = flag.Bool("hash", false, "compute content hashes for duplicate metrics")
		noPrompt   = flag.Bool("no-prompt", false, "never prompt; take configured answers as-is")
		verbose    = flag.Bool("v", false, "show debug output on the console")
		saveConfig = flag.Bool("save-config", false, "persist the effective configuration for future runs")
	)
	flag.Parse()

	cfg, err := psapp.LoadConfig(*configPath)
	if err != nil {
		observatory.Log.Fatal("failed loading config", zap.Error(err))
	}

	// flags the user actually passed override everything else
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base":
			cfg.BaseFolder = *baseFolder
		case "start":
			cfg.StartDate = *startDate
		case "min-year":
			cfg.MinYear = *minYear
		case "max-year":
			cfg.MaxYear = *maxYear
		case "output":
			cfg.OutputDir = *outputDir
		case "hash":
			cfg.EnableHashing = *hashing
			cfg.PromptHashing = false
		case "no-prompt":
			cfg.PromptHashing = false
		case "v":
			cfg.Verbose = *verbose
		}
	})
	observatory.SetVerbose(cfg.Verbose)

	if *saveConfig {
		cfgFilePath := *configPath
		if cfgFilePath == "" {
			cfgFilePath = psapp.DefaultConfigFilePath()
		}
		if err := cfg.Save(cfgFilePath); err != nil {
			observatory.Log.Fatal("saving config", zap.Error(err))
		}
		observatory.Log.Info("config saved", zap.String("path", cfgFilePath))
	}

	var decide psapp.Decider = terminalDecider{}
	if *noPrompt {
		decide = psapp.FixedDecider(cfg.EnableHashing)
	}

	app := psapp.New(cfg, decide)
	ctx := context.Background()

	mode := flag.Arg(0)
	if mode == "" && !*noPrompt {
		mode = promptMode()
	}

	switch mode {
	case "scan":
		err = app.RunScan(ctx)
	case "from-csv", "csv", "":
		err = app.RunFromCSV(ctx, flag.Arg(1))
	default:
		err = fmt.Errorf("unknown mode %q (want scan or from-csv)", mode)
	}
	if err != nil {
		observatory.Log.Fatal("run failed",
			zap.String("mode", mode),
			zap.Error(err))
	}
}

// promptMode asks which entry point to use; rebuilding from the CSV
// is the default because it's fast.
func promptMode() string {
	fmt.Println("Choose report mode:")
	fmt.Println("1) Scan media folders (slower)")
	fmt.Println("2) Build report from existing CSV (fast)")
	fmt.Print("Select [1/2] (default 2): ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "from-csv"
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "1", "scan", "s":
		return "scan"
	default:
		return "from-csv"
	}
}

// terminalDecider asks yes/no questions on the terminal.
type terminalDecider struct{}

func (terminalDecider) Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s [%s]: ", question, hint)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, fmt.Errorf("reading answer: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Println("Please enter y or n.")
	}
}
