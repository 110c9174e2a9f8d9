package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/v0xg/uiscout/internal/config"
	"github.com/v0xg/uiscout/internal/history"
)

func listHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.HistoryDB); os.IsNotExist(err) {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	catalog, err := history.Open(cmd.Context(), history.Config{Path: cfg.HistoryDB})
	if err != nil {
		return err
	}
	defer catalog.Close()

	runs, err := catalog.List(cmd.Context(), historyLim)
	if err != nil {
		return err
	}
	for _, r := range runs {
		mark := dim.Sprint("·")
		if r.GoalReached {
			mark = green.Sprint("✓")
		}
		fmt.Printf("%s %s  %-40q %d states  %s\n",
			mark, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Goal, r.States, dim.Sprint(r.Dir))
	}
	return nil
}
