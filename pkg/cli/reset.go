package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mchmarny/cargoscan/pkg/data"
	"github.com/urfave/cli/v3"
)

const flagYes = "yes"

func newResetCmd() *cli.Command {
	return &cli.Command{
		Name:            "reset",
		Usage:           "Delete all stored analyses and start fresh",
		HideHelpCommand: true,
		Action:          cmdReset,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagYes,
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
		},
	}
}

func cmdReset(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	if !cmd.Bool(flagYes) {
		fmt.Fprintf(cmd.Root().Writer, "This will permanently delete all analyses in %s\n", cfg.DBPath)
		fmt.Fprint(cmd.Root().Writer, "Are you sure? [y/N]: ")

		reader := bufio.NewReader(cmd.Root().Reader)
		answer, err := reader.ReadString('\n')
		if err != nil && answer == "" {
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Fprintln(cmd.Root().Writer, "Aborted.")
			return nil
		}
	}

	// close the DB before deleting the file
	if cfg.DB != nil {
		cfg.DB.Close()
		cfg.DB = nil
	}

	for _, p := range []string{cfg.DBPath, cfg.DBPath + "-wal", cfg.DBPath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting database: %w", err)
		}
	}

	slog.Info("database deleted", "path", cfg.DBPath)

	// re-initialize empty database
	if err := data.Init(cfg.DBPath); err != nil {
		return fmt.Errorf("re-initializing database: %w", err)
	}

	db, err := data.GetDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("re-opening database: %w", err)
	}
	cfg.DB = db

	slog.Info("database re-initialized", "path", cfg.DBPath)
	fmt.Fprintln(cmd.Root().Writer, "Reset complete.")
	return nil
}
