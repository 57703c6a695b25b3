package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tildaslashalef/methodgen/internal/loggy"
)

//go:embed env.sample
var sampleEnv []byte

// SampleEnv returns the default .env written by init
func SampleEnv() []byte {
	return append([]byte(nil), sampleEnv...)
}

// SetupConfigDirectory creates configDir and writes the sample .env into it.
// An existing .env is kept unless backupExisting is set, in which case it is
// moved aside to a dated .bak file first.
func SetupConfigDirectory(configDir string, backupExisting bool) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	envPath := filepath.Join(configDir, ".env")
	backup, err := WriteSampleEnv(envPath, backupExisting)
	if err != nil {
		return err
	}
	if backup != "" {
		loggy.Info("Existing configuration backed up", "original", envPath, "backup", backup)
	}
	return nil
}

// WriteSampleEnv writes the sample .env to target. It returns the backup
// path when an existing file was moved aside, and does nothing when the
// file exists and backupExisting is false.
func WriteSampleEnv(target string, backupExisting bool) (string, error) {
	var backup string

	switch _, err := os.Stat(target); {
	case err == nil && !backupExisting:
		return "", nil
	case err == nil:
		backup = fmt.Sprintf("%s.%s.bak", target, time.Now().Format("20060102-150405"))
		if err := os.Rename(target, backup); err != nil {
			return "", fmt.Errorf("backing up %s: %w", target, err)
		}
	case !os.IsNotExist(err):
		return "", fmt.Errorf("checking %s: %w", target, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return backup, err
	}

	// the file holds API keys
	if err := os.WriteFile(target, sampleEnv, 0600); err != nil {
		return backup, fmt.Errorf("writing %s: %w", target, err)
	}

	loggy.Debug("Sample configuration written", "target", target)
	return backup, nil
}
