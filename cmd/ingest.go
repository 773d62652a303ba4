package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SonJH7/status-allocation-berths/app"
	"github.com/SonJH7/status-allocation-berths/config"
	"github.com/SonJH7/status-allocation-berths/core/schedule"
	"github.com/SonJH7/status-allocation-berths/infra/logger"
	"github.com/SonJH7/status-allocation-berths/ingest"
)

var ingestLabel string

var ingestCmd = &cobra.Command{
	Use:   "ingest <rows.json>",
	Short: "Commit a scraped row file as a new baseline version",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestLabel, "label", "l", "", "label for the new version")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	st, err := app.OpenStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.New("ingest").Errorf("store close: %v", err)
		}
	}()

	manager, err := schedule.NewVersionManager(st, cfg.Schedule, logger.New("schedule"), nil, nil)
	if err != nil {
		return err
	}
	adapter, err := ingest.NewAdapter(manager, nil, logger.New("ingest"))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	var rows []ingest.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("parse rows: %w", err)
	}

	id, rowErrs, err := adapter.CommitBaseline(context.Background(), rows, ingestLabel)
	if err != nil {
		return err
	}
	for _, re := range rowErrs {
		fmt.Fprintf(os.Stderr, "skipped %v\n", re)
	}
	fmt.Println(id)
	return nil
}
