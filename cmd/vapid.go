package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/complaint-management/internal/push"
)

var vapidCmd = &cobra.Command{
	Use:   "vapid",
	Short: "Generate a VAPID key pair for web push",
	Long:  `Print a fresh VAPID key pair in the environment variable form the server reads.`,
	Run: func(cmd *cobra.Command, args []string) {
		publicKey, privateKey, err := push.GenerateVAPIDKeys()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate keys: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", publicKey, privateKey)
	},
}

func init() {
	rootCmd.AddCommand(vapidCmd)
}
