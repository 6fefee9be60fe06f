package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains the resolved application paths.
// This is the single source of truth for file locations: report output,
// the boss registry and log files all resolve through here.
type Paths struct {
	DataDir    string
	ReportsDir string
	ConfigDir  string
	LogsDir    string
}

// NewPaths resolves the configured directories against the current
// working directory and creates them if missing.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	base, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	p := &Paths{
		DataDir:    resolve(base, cfg.DataDir),
		ReportsDir: resolve(base, cfg.ReportsDir),
		ConfigDir:  resolve(base, cfg.ConfigDir),
		LogsDir:    resolve(base, cfg.LogsDir),
	}

	for _, dir := range []string{p.DataDir, p.ReportsDir, p.ConfigDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return p, nil
}

// GetReportPath returns the full path for a report output file.
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetBossRegistryPath returns the full path of the boss registry file.
func (p *Paths) GetBossRegistryPath() string {
	return filepath.Join(p.ConfigDir, BossRegistryFile)
}

// GetLogPath returns the full path for a log file.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

func resolve(base, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}
