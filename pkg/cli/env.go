package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const envFileName = ".env"

// envFiles lists the dotenv files checked on start, working dir first.
func envFiles() []string {
	files := []string{envFileName}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, "."+appName, envFileName))
	}
	return files
}

// loadEnvFiles exports the variables of every existing file in paths.
// Variables already set in the environment win over file values, and so do
// files listed earlier. Returns the files that were loaded.
func loadEnvFiles(paths ...string) ([]string, error) {
	loaded := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("checking env file %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("loading env file %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

func loadEnv() {
	loaded, err := loadEnvFiles(envFiles()...)
	if err != nil {
		slog.Warn("env files not fully loaded", "error", err)
	}
	if len(loaded) > 0 {
		slog.Debug("env files loaded", "files", loaded)
	}
}
