package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SonJH7/status-allocation-berths/app"
	"github.com/SonJH7/status-allocation-berths/config"
	"github.com/SonJH7/status-allocation-berths/infra/logger"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the committed schedule versions",
	RunE:  runVersions,
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
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
			logger.New("versions").Errorf("store close: %v", err)
		}
	}()

	versions, err := st.List(context.Background())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tID\tSOURCE\tPARENT\tCREATED\tLABEL\tCHANGES")
	for _, v := range versions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			v.Seq, v.ID, v.Source, v.ParentID, v.CreatedAt.Format("2006-01-02 15:04"), v.Label, len(v.Diff))
	}
	return w.Flush()
}
