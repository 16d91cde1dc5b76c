package cmd

import (
	"github.com/spf13/cobra"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check the audit log of grant issuance and revocation",
	Long:  `View audit logs on the server. Requires an authenticated session (nestlock login).`,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
