package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var revokeCmd = &cobra.Command{
	Use:   "revoke TRANSACTION_ID",
	Short: "Revoke the access code of a booking",
	Long: `Removes the keypad code from the lock and clears the grant metadata
stored on the booking transaction.`,
	Example: `  # Revoke the code for a booking transaction
  nestlock revoke 5e9f8a2c-0000-0000-0000-000000000000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transactionID := args[0]

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Info().Msgf("Revoking access code for transaction %s...", transactionID)
		correlation, err := cli.RevokeGrant(cmd.Context(), transactionID)
		if err != nil {
			return logError(err, correlation, "failed to revoke access code")
		}

		logSuccess("access code revoked")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(revokeCmd)
}
