package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/cargoscan/pkg/config"
	"github.com/urfave/cli/v3"
)

const flagRestoreDefaults = "restore-defaults"

func newConfigCmd() *cli.Command {
	return &cli.Command{
		Name:            "config",
		Usage:           "Print the effective configuration",
		HideHelpCommand: true,
		Action:          cmdConfig,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagRestoreDefaults,
				Usage: "Overwrite the config file with the default term lists and thresholds",
			},
		},
	}
}

type configView struct {
	Path   string         `json:"path" yaml:"path"`
	DBPath string         `json:"db" yaml:"db"`
	Config *config.Config `json:"config" yaml:"config"`
}

func cmdConfig(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	if cmd.Bool(flagRestoreDefaults) {
		if err := config.SaveAs(cfg.ConfigPath, config.Default()); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		conf, err := config.Load(cfg.ConfigPath)
		if err != nil {
			return fmt.Errorf("reloading config: %w", err)
		}
		cfg.Conf = conf
		slog.Info("config restored", "path", cfg.ConfigPath)
	}

	return encode(cmd, &configView{
		Path:   cfg.ConfigPath,
		DBPath: cfg.DBPath,
		Config: cfg.Conf,
	})
}
