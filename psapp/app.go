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

package psapp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/photostat/photostat/observatory"
	"go.uber.org/zap"
)

// App ties the configuration, the decision capability, and the
// pipeline together. One App serves one run.
type App struct {
	cfg    Config
	decide Decider
	log    *zap.Logger
	runID  string
}

// New returns an App for the given config. decide must not be nil.
func New(cfg Config, decide Decider) *App {
	runID := uuid.New().String()
	return &App{
		cfg:    cfg,
		decide: decide,
		log:    observatory.Log.Named("app").With(zap.String("run_id", runID)),
		runID:  runID,
	}
}

// RunScan is the full pipeline: walk the archive, resolve timestamps,
// aggregate, write the CSV dataset, and render the HTML report.
// Configuration errors (including a missing base folder) are fatal
// before any output is written.
func (a *App) RunScan(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	info, err := os.Stat(a.cfg.BaseFolder)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return fmt.Errorf("base folder not found: %s", a.cfg.BaseFolder)
	}
	if err != nil {
		return fmt.Errorf("checking base folder: %w", err)
	}

	hashing := a.cfg.EnableHashing
	if a.cfg.PromptHashing {
		hashing, err = a.decide.Confirm("Enable hashing (BLAKE3 + dHash)?", a.cfg.EnableHashing)
		if err != nil {
			return fmt.Errorf("hashing decision: %w", err)
		}
	}

	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	closeRunLog, err := a.attachRunLog()
	if err != nil {
		return err
	}
	defer closeRunLog()

	startDate, err := a.cfg.StartTime()
	if err != nil {
		return err
	}

	opts := observatory.ScanOptions{
		Walk: observatory.WalkOptions{
			StartYear:  startDate.Year(),
			StartMonth: int(startDate.Month()),
			MinYear:    a.cfg.MinYear,
			MaxYear:    a.cfg.MaxYear,
		},
		StartDate:         startDate,
		ModTimeFallback:   a.cfg.ModTimeFallback,
		Hashing:           hashing,
		NearDupThreshold:  a.cfg.NearDupThreshold,
		NearDupPrefixBits: a.cfg.NearDupPrefixBits,
	}
	if startDate.IsZero() {
		opts.Walk.StartYear, opts.Walk.StartMonth = 0, 0
	}

	a.log.Info("scanning archive",
		zap.String("base_folder", a.cfg.BaseFolder),
		zap.Bool("hashing", hashing))

	agg := observatory.NewAggregator()
	stats, err := observatory.Scan(ctx, os.DirFS(a.cfg.BaseFolder), opts, a.log, agg)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	set, err := agg.Finalize()
	if errors.Is(err, observatory.ErrNoData) {
		return fmt.Errorf("no media found; check base folder and start date: %w", err)
	}
	if err != nil {
		return err
	}

	if err := a.writeCSV(set); err != nil {
		return err
	}
	if err := a.writeHTML(observatory.BuildReport(set, &stats, a.runID, time.Now())); err != nil {
		return err
	}

	a.log.Info("report written",
		zap.String("html", a.cfg.HTMLPath()),
		zap.String("csv", a.cfg.CSVPath()),
		zap.Int("unresolved", stats.Unresolved))

	return nil
}

// RunFromCSV regenerates the HTML report from a previously written
// dataset, skipping the walker and extractor entirely. csvPath may be
// empty to use the configured default.
func (a *App) RunFromCSV(ctx context.Context, csvPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if csvPath == "" {
		csvPath = a.cfg.CSVPath()
	}

	file, err := os.Open(csvPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("CSV not found: %s", csvPath)
	}
	if err != nil {
		return fmt.Errorf("opening CSV: %w", err)
	}
	defer file.Close()

	set, err := observatory.ReadReportCSV(file)
	if err != nil {
		return fmt.Errorf("loading dataset from %s: %w", csvPath, err)
	}

	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	closeRunLog, err := a.attachRunLog()
	if err != nil {
		return err
	}
	defer closeRunLog()

	if err := a.writeHTML(observatory.BuildReport(set, nil, a.runID, time.Now())); err != nil {
		return err
	}

	a.log.Info("report regenerated from CSV",
		zap.String("csv", csvPath),
		zap.String("html", a.cfg.HTMLPath()))

	return nil
}

func (a *App) writeCSV(set observatory.SeriesSet) error {
	file, err := os.Create(a.cfg.CSVPath())
	if err != nil {
		return fmt.Errorf("creating CSV: %w", err)
	}
	defer file.Close()
	if err := observatory.WriteReportCSV(file, set); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	return nil
}

func (a *App) writeHTML(data observatory.ReportData) error {
	file, err := os.Create(a.cfg.HTMLPath())
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer file.Close()
	return observatory.RenderReport(file, data)
}

// attachRunLog hooks a JSON run log in the output directory into the
// process logger; the returned func detaches and closes it.
func (a *App) attachRunLog() (func(), error) {
	if !a.cfg.RunLog {
		return func() {}, nil
	}
	logFile, err := os.OpenFile(a.cfg.RunLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	observatory.AddLogFile(logFile)
	return func() {
		observatory.RemoveLogFile(logFile)
		logFile.Close()
	}, nil
}
