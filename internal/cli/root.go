// Package cli defines the cobra command tree for homees.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/homees-app/homees/internal/client"
	"github.com/homees-app/homees/internal/db"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "homees",
		Short:         "Property management marketplace",
		Long:          "Homees connects property owners with property managers. Run the web server, manage accounts, or use the API from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				flagFormat = getDefaultFormat()
			}
			switch flagFormat {
			case "text", "json":
				return nil
			default:
				return fmt.Errorf("invalid format %q (want text or json)", flagFormat)
			}
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: $HOMEES_DB or ~/.homees/homees.db)")

	root.AddCommand(
		newServeCmd(),
		newSchemaCmd(),
		newUserCmd(),
		newChatCmd(),
		newPropertiesCmd(),
		newDemandesCmd(),
		newNotificationsCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database from the --db flag, then fallback, then
// $HOMEES_DB, then the default path.
func openDB(fallback string) (*sql.DB, error) {
	path := flagDB
	if path == "" {
		path = fallback
	}
	if path == "" {
		path = os.Getenv("HOMEES_DB")
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the homees API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
