package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariefcatur/go-qris-orderbot/internal/logging"
	"github.com/ariefcatur/go-qris-orderbot/internal/postgres"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, _ := cmd.Flags().GetString("dsn")
			if dsn == "" {
				dsn = os.Getenv("POSTGRES_DSN")
			}
			if dsn == "" {
				return fmt.Errorf("dsn required: --dsn or POSTGRES_DSN")
			}
			log, err := logging.New("info", "orderbotctl")
			if err != nil {
				return err
			}
			defer log.Sync()
			return postgres.Migrate(dsn, log)
		},
	}
	cmd.Flags().String("dsn", "", "Postgres DSN (default $POSTGRES_DSN)")
	return cmd
}
