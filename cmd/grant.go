package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var grantCmd = &cobra.Command{
	Use:   "grant TRANSACTION_ID",
	Short: "Issue an access code for a booking",
	Long: `Issues a time-bound keypad code on the listing's lock for the booking
transaction. The code is printed exactly once and never stored.`,
	Example: `  # Issue a code for a booking transaction
  nestlock grant 5e9f8a2c-0000-0000-0000-000000000000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transactionID := args[0]

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Info().Msgf("Issuing access code for transaction %s...", transactionID)
		grant, correlation, err := cli.CreateGrant(cmd.Context(), transactionID)
		if err != nil {
			return logError(err, correlation, "failed to issue access code")
		}

		logSuccess("access code issued for lock %s", bold(grant.LockID))

		fmt.Println(bold("\n── Access Code ──"))
		fmt.Printf("  %s:  %s\n", faint("Code"), bold(grant.Pin))
		fmt.Printf("  %s:  %s\n", faint("From"), grant.StartDate.Format("2006-01-02 15:04"))
		fmt.Printf("  %s: %s\n", faint("Until"), grant.EndDate.Format("2006-01-02 15:04"))
		fmt.Println(faint("\nThe code is shown only once. Share it with the guest now."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(grantCmd)
}
