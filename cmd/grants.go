package cmd

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var grantsCmd = &cobra.Command{
	Use:     "grants",
	Aliases: []string{"ls"},
	Short:   "List active access grants",
	Long:    `Lists the currently active grant records on the server. Requires an authenticated session (nestlock login).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Retrieving active grants...")
		records, correlation, err := cli.ListActiveGrants(cmd.Context())
		if err != nil {
			return logError(err, correlation, "failed to list grants")
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Transaction", "Lock", "Grant ID", "From", "Until", "Created"})

		now := time.Now()
		for _, rec := range records {
			until := rec.EndDate.Format("2006-01-02 15:04")
			if rec.EndDate.Sub(now) < 24*time.Hour {
				until = color.YellowString(until)
			}

			t.AppendRow(table.Row{
				truncate(rec.TransactionID, 35),
				rec.LockID,
				rec.VendorGrantID,
				rec.StartDate.Format("2006-01-02 15:04"),
				until,
				rec.CreatedAt.Format("2006-01-02 15:04"),
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(grantsCmd)
}
