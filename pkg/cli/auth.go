package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/cargoscan/pkg/auth"
	"github.com/urfave/cli/v3"
	"github.com/zalando/go-keyring"
)

const (
	passwordFileName = "operator_password"
	keyringService   = appName
	keyringUser      = "operator_password"
	passwordMinLen   = 8
)

func newAuthCmd() *cli.Command {
	return &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Set the operator password for the web UI",
		Action:          cmdSetPassword,
	}
}

func cmdSetPassword(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	fmt.Fprintf(cmd.Root().Writer, "Operator: %s\n", cfg.Conf.Server.Username)
	fmt.Fprint(cmd.Root().Writer, "New password: ")

	reader := bufio.NewReader(cmd.Root().Reader)
	pwd, err := reader.ReadString('\n')
	if err != nil && pwd == "" {
		return fmt.Errorf("reading user input: %w", err)
	}
	pwd = strings.TrimRight(pwd, "\r\n")

	if len(pwd) < passwordMinLen {
		return fmt.Errorf("password must be at least %d characters", passwordMinLen)
	}

	if err = saveOperatorPassword(cfg.HomeDir, pwd); err != nil {
		return fmt.Errorf("saving password: %w", err)
	}

	fmt.Fprintln(cmd.Root().Writer, "Password saved")
	return nil
}

func saveOperatorPassword(dir, pwd string) error {
	if err := keyring.Set(keyringService, keyringUser, pwd); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return os.WriteFile(filepath.Join(dir, passwordFileName), []byte(pwd), 0600)
	}

	// Clean up legacy file if it exists
	os.Remove(filepath.Join(dir, passwordFileName))

	return nil
}

func getOperatorPassword(dir string) (string, error) {
	// Try keychain first
	pwd, err := keyring.Get(keyringService, keyringUser)
	if err == nil && pwd != "" {
		return pwd, nil
	}

	// Fall back to file
	b, err := os.ReadFile(filepath.Join(dir, passwordFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", auth.ErrNoPassword
		}
		return "", fmt.Errorf("reading password file: %w", err)
	}
	pwd = strings.TrimSpace(string(b))
	if pwd == "" {
		return "", auth.ErrNoPassword
	}

	// Migrate to keychain
	if migrateErr := keyring.Set(keyringService, keyringUser, pwd); migrateErr == nil {
		slog.Info("migrated password from file to OS keychain")
		os.Remove(filepath.Join(dir, passwordFileName))
	}

	return pwd, nil
}
