package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mchmarny/cargoscan/pkg/config"
	"github.com/mchmarny/cargoscan/pkg/data"
	"github.com/mchmarny/cargoscan/pkg/logging"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	flagDebug    = "debug"
	flagLogLevel = "log-level"
	flagDB       = "db"
	flagConfig   = "config"
	flagFormat   = "format"

	appName      = "cargoscan"
	appConfigKey = "app-config"
	envPrefix    = "CARGOSCAN_"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")
	loadEnv()

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	HomeDir    string
	DBPath     string
	ConfigPath string
	Format     string
	Debug      bool
	Conf       *config.Config
	DB         *sql.DB
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Rank cargo manifest records by how suspicious they look",
		Metadata:              map[string]any{},
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:    flagDebug,
				Usage:   "Prints verbose logs (optional, default: false)",
				Sources: urfave.EnvVars(envPrefix + "DEBUG"),
			},
			&urfave.StringFlag{
				Name:    flagLogLevel,
				Usage:   "Log level [debug, info, warn, error]",
				Value:   "info",
				Sources: urfave.EnvVars(envPrefix + "LOG_LEVEL"),
			},
			&urfave.StringFlag{
				Name:    flagDB,
				Usage:   "Path to the Sqlite database file",
				Sources: urfave.EnvVars(envPrefix + "DB"),
			},
			&urfave.StringFlag{
				Name:    flagConfig,
				Usage:   "Path to the YAML config file (default: $HOME/.cargoscan/config.yaml)",
				Sources: urfave.EnvVars(envPrefix + "CONFIG"),
			},
			&urfave.StringFlag{
				Name:  flagFormat,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
		},
		Commands: []*urfave.Command{
			newAnalyzeCmd(),
			newExportCmd(),
			newListCmd(),
			newShowCmd(),
			newSuspectsCmd(),
			newDeleteCmd(),
			newConfigCmd(),
			newAuthCmd(),
			newResetCmd(),
			newServerCmd(),
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			applyFlags(cmd)

			home, err := getHomeDir()
			if err != nil {
				return ctx, fmt.Errorf("resolving app directory: %w", err)
			}

			cfgPath := cmd.String(flagConfig)
			var conf *config.Config
			if cfgPath == "" {
				cfgPath = filepath.Join(home, config.FileName)
				conf, err = config.ReadOrCreate(home)
			} else {
				conf, err = config.Load(cfgPath)
			}
			if err != nil {
				return ctx, fmt.Errorf("loading config: %w", err)
			}

			dbPath := cmd.String(flagDB)
			if dbPath == "" {
				dbPath = filepath.Join(home, data.DataFileName)
			}

			if err := data.Init(dbPath); err != nil {
				return ctx, fmt.Errorf("initializing database: %w", err)
			}

			db, err := data.GetDB(dbPath)
			if err != nil {
				return ctx, fmt.Errorf("opening database: %w", err)
			}

			f := cmd.String(flagFormat)
			if f == "yml" {
				f = formatYAML
			}

			cmd.Metadata[appConfigKey] = &appConfig{
				HomeDir:    home,
				DBPath:     dbPath,
				ConfigPath: cfgPath,
				Format:     f,
				Debug:      cmd.Bool(flagDebug),
				Conf:       conf,
				DB:         db,
			}
			return ctx, nil
		},
		After: func(_ context.Context, cmd *urfave.Command) error {
			if cfg, ok := cmd.Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

func applyFlags(cmd *urfave.Command) {
	level := cmd.String(flagLogLevel)
	if cmd.Bool(flagDebug) {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)
}

func getHomeDir() (string, error) {
	dir, created, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		return "", err
	}
	if created {
		slog.Debug("created app dir", "path", dir)
	}
	return dir, nil
}

func encode(cmd *urfave.Command, v any) error {
	return encodeTo(cmd.Root().Writer, getConfig(cmd).Format, v)
}

func encodeTo(w io.Writer, format string, v any) error {
	if w == nil {
		w = os.Stdout
	}
	switch format {
	case formatYAML:
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	case formatJSON, "":
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(v)
	default:
		return errors.New("unsupported output format: " + format)
	}
}
