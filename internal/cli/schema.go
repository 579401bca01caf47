package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/homees-app/homees/internal/config"
	"github.com/homees-app/homees/internal/schema"
)

type schemaFlags struct {
	dsn    string
	sqlite string
}

func newSchemaCmd() *cobra.Command {
	var flags schemaFlags

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the Supabase Postgres schema",
		Long: `Create or inspect the tables of the hosted Postgres database.

The connection string comes from --dsn or DATABASE_URL. Use --sqlite to
apply the same models to a local file instead.`,
	}

	cmd.PersistentFlags().StringVar(&flags.dsn, "dsn", "", "Postgres connection string (default: $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&flags.sqlite, "sqlite", "", "apply to a local SQLite file instead of Postgres")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "push",
			Short: "Create or update every table",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSchemaPush(flags)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List tables that do not exist yet",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSchemaStatus(flags)
			},
		},
	)

	return cmd
}

func openSchemaDB(flags schemaFlags) (*gorm.DB, error) {
	if flags.sqlite != "" {
		return schema.OpenSQLite(flags.sqlite)
	}
	dsn := flags.dsn
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		dsn = cfg.DatabaseURL
	}
	return schema.OpenPostgres(dsn)
}

func closeSchemaDB(db *gorm.DB) {
	if err := schema.Close(db); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

func runSchemaPush(flags schemaFlags) error {
	db, err := openSchemaDB(flags)
	if err != nil {
		return err
	}
	defer closeSchemaDB(db)

	if err := schema.Push(db); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]int{"tables": len(schema.Models())})
	}
	fmt.Printf("✓ Schema pushed (%d tables).\n", len(schema.Models()))
	return nil
}

func runSchemaStatus(flags schemaFlags) error {
	db, err := openSchemaDB(flags)
	if err != nil {
		return err
	}
	defer closeSchemaDB(db)

	missing, err := schema.Missing(db)
	if err != nil {
		return err
	}
	if missing == nil {
		missing = []string{}
	}

	if isJSON() {
		return printJSON(map[string][]string{"missing": missing})
	}
	if len(missing) == 0 {
		fmt.Println("Schema is up to date.")
		return nil
	}
	fmt.Println("Missing tables:")
	for _, t := range missing {
		fmt.Printf("  %s\n", t)
	}
	return nil
}
