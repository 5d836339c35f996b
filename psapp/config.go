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
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config describes one run of the observatory. It is assembled once
// by LoadConfig and passed around by value: components never mutate
// shared settings.
type Config struct {
	// The year/month archive to scan.
	BaseFolder string `json:"base_folder,omitempty" env:"PHOTOSTAT_BASE_FOLDER"`

	// Files whose capture date falls before this YYYYMMDD date are
	// ignored.
	StartDate string `json:"start_date,omitempty" env:"PHOTOSTAT_START_DATE"`

	// Inclusive range of year folders to visit; zero means
	// unbounded on that side.
	MinYear int `json:"min_year,omitempty" env:"PHOTOSTAT_MIN_YEAR"`
	MaxYear int `json:"max_year,omitempty" env:"PHOTOSTAT_MAX_YEAR"`

	// Where the CSV dataset, the HTML report, and the run log go.
	OutputDir string `json:"output_dir,omitempty" env:"PHOTOSTAT_OUTPUT_DIR"`

	// Content hashing for duplicate metrics. When PromptHashing is
	// set, the injected Decider gets the final say (hashing reads
	// every byte of the archive, so it's worth asking).
	EnableHashing bool `json:"enable_hashing,omitempty" env:"PHOTOSTAT_ENABLE_HASHING"`
	PromptHashing bool `json:"prompt_hashing,omitempty" env:"PHOTOSTAT_PROMPT_HASHING"`

	// Resolve files with no embedded or filename date to their
	// modification time instead of counting them unresolved.
	ModTimeFallback bool `json:"mtime_fallback,omitempty" env:"PHOTOSTAT_MTIME_FALLBACK"`

	// Near-duplicate clustering; zero values select the defaults.
	NearDupThreshold  int `json:"near_dup_threshold,omitempty" env:"PHOTOSTAT_NEAR_DUP_THRESHOLD"`
	NearDupPrefixBits int `json:"near_dup_prefix_bits,omitempty" env:"PHOTOSTAT_NEAR_DUP_PREFIX_BITS"`

	// Also write a JSON run log next to the report artifacts.
	RunLog bool `json:"run_log,omitempty" env:"PHOTOSTAT_RUN_LOG"`

	// Show debug output on the console as well.
	Verbose bool `json:"verbose,omitempty" env:"PHOTOSTAT_VERBOSE"`
}

// DefaultConfig mirrors how the tool is typically used: scan a local
// archive from the beginning of 2022 onward, no hashing unless asked.
func DefaultConfig() Config {
	return Config{
		BaseFolder:      "media_archive",
		StartDate:       "20220101",
		OutputDir:       "output",
		PromptHashing:   true,
		ModTimeFallback: true,
	}
}

// LoadConfig assembles the config: embedded defaults, then the JSON
// config file (a missing file is fine), then a .env file and
// PHOTOSTAT_* environment variables. Flag overrides are the caller's
// job since it owns the flag set.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultConfigFilePath()
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// nothing to load; defaults apply
	case err != nil:
		return cfg, fmt.Errorf("reading config file: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decoding config file %s: %w", path, err)
		}
	}

	// a .env in the working directory is a convenience, not a requirement
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("applying environment overrides: %w", err)
	}

	return cfg, nil
}

// Save persists the config as indented JSON, creating the directory
// if needed.
func (cfg Config) Save(path string) error {
	if path == "" {
		path = DefaultConfigFilePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	cfgFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer cfgFile.Close()
	enc := json.NewEncoder(cfgFile)
	enc.SetIndent("", "\t")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Validate reports configuration errors that must stop a run before
// any output is produced.
func (cfg Config) Validate() error {
	if cfg.BaseFolder == "" {
		return errors.New("base folder is required")
	}
	if _, err := cfg.StartTime(); err != nil {
		return err
	}
	if cfg.MinYear != 0 && cfg.MaxYear != 0 && cfg.MinYear > cfg.MaxYear {
		return fmt.Errorf("min year %d is after max year %d", cfg.MinYear, cfg.MaxYear)
	}
	if cfg.OutputDir == "" {
		return errors.New("output directory is required")
	}
	return nil
}

// StartTime parses the configured YYYYMMDD start date.
func (cfg Config) StartTime() (time.Time, error) {
	if cfg.StartDate == "" {
		return time.Time{}, nil
	}
	ts, err := time.ParseInLocation("20060102", cfg.StartDate, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("start date must be YYYYMMDD: %w", err)
	}
	return ts, nil
}

// CSVPath is where the dataset is written (and read back from in
// CSV-only mode, unless overridden).
func (cfg Config) CSVPath() string {
	return filepath.Join(cfg.OutputDir, "photostat_report_data.csv")
}

// HTMLPath is where the rendered report is written.
func (cfg Config) HTMLPath() string {
	return filepath.Join(cfg.OutputDir, "photostat_report.html")
}

// RunLogPath is where the JSON run log is written when enabled.
func (cfg Config) RunLogPath() string {
	return filepath.Join(cfg.OutputDir, "photostat_run.log")
}

// DefaultConfigFilePath returns the file path where configuration
// is persisted.
func DefaultConfigFilePath() string {
	cfgDir, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(cfgDir, "photostat", "config.json")
	}
	cfgDir, err = os.UserHomeDir()
	if err == nil {
		return filepath.Join(cfgDir, ".photostat", "config.json")
	}
	return filepath.Join(".photostat", "config.json")
}
