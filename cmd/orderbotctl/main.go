// orderbotctl: alat operator untuk orderbot (signature, simulasi
// notifikasi Midtrans, migrasi, tail event).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "orderbotctl",
		Short:   "Operator tools for the QRIS order bot",
		Version: Version,
	}
	rootCmd.AddCommand(signCmd())
	rootCmd.AddCommand(notifyCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(eventsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serverKey(cmd *cobra.Command) (string, error) {
	key, _ := cmd.Flags().GetString("server-key")
	if key == "" {
		key = os.Getenv("MIDTRANS_SERVER_KEY")
	}
	if key == "" {
		return "", fmt.Errorf("server key required: --server-key or MIDTRANS_SERVER_KEY")
	}
	return key, nil
}
