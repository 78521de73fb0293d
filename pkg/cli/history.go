package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mchmarny/cargoscan/pkg/data"
	"github.com/urfave/cli/v3"
)

const (
	latestAnalysisID = "latest"

	listLimitDefault    = 20
	suspectLimitDefault = 50
)

const (
	flagID       = "id"
	flagLimit    = "limit"
	flagMinScore = "min-score"
)

func idFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagID,
		Usage: "Analysis ID or 'latest'",
		Value: latestAnalysisID,
	}
}

func limitFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  flagLimit,
		Usage: "Maximum number of items to print",
	}
}

func newListCmd() *cli.Command {
	return &cli.Command{
		Name:            "list",
		Aliases:         []string{"ls"},
		Usage:           "List stored analyses, newest first",
		HideHelpCommand: true,
		Action:          cmdList,
		Flags:           []cli.Flag{limitFlag()},
	}
}

func newShowCmd() *cli.Command {
	return &cli.Command{
		Name:            "show",
		Usage:           "Print a stored analysis",
		HideHelpCommand: true,
		Action:          cmdShow,
		Flags:           []cli.Flag{idFlag()},
	}
}

func newSuspectsCmd() *cli.Command {
	return &cli.Command{
		Name:            "suspects",
		Usage:           "List the highest scoring records across all stored analyses",
		HideHelpCommand: true,
		Action:          cmdSuspects,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  flagMinScore,
				Usage: "Only include suspects scoring at least this much",
				Value: 1,
			},
			limitFlag(),
		},
	}
}

func newDeleteCmd() *cli.Command {
	return &cli.Command{
		Name:            "delete",
		Aliases:         []string{"rm"},
		Usage:           "Delete a stored analysis",
		HideHelpCommand: true,
		Action:          cmdDelete,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagID,
				Usage:    "Analysis ID",
				Required: true,
			},
		},
	}
}

// getAnalysis resolves id, treating "latest" and empty as the most recent analysis.
func getAnalysis(db *sql.DB, id string) (*data.Analysis, error) {
	if id == "" || id == latestAnalysisID {
		return data.GetLatestAnalysis(db)
	}
	return data.GetAnalysis(db, id)
}

func cmdList(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int(flagLimit)
	if limit <= 0 {
		limit = listLimitDefault
	}
	list, err := data.ListAnalyses(getConfig(cmd).DB, limit)
	if err != nil {
		return fmt.Errorf("listing analyses: %w", err)
	}
	return encode(cmd, list)
}

func cmdShow(ctx context.Context, cmd *cli.Command) error {
	a, err := getAnalysis(getConfig(cmd).DB, cmd.String(flagID))
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return fmt.Errorf("analysis %q not found", cmd.String(flagID))
		}
		return fmt.Errorf("getting analysis: %w", err)
	}
	return encode(cmd, a)
}

func cmdSuspects(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int(flagLimit)
	if limit <= 0 {
		limit = suspectLimitDefault
	}
	list, err := data.ListSuspects(getConfig(cmd).DB, cmd.Int(flagMinScore), limit)
	if err != nil {
		return fmt.Errorf("listing suspects: %w", err)
	}
	return encode(cmd, list)
}

func cmdDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.String(flagID)
	if err := data.DeleteAnalysis(getConfig(cmd).DB, id); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return fmt.Errorf("analysis %q not found", id)
		}
		return fmt.Errorf("deleting analysis: %w", err)
	}
	slog.Info("analysis deleted", "id", id)
	return nil
}
