package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homees-app/homees/internal/client"
)

func newLogoutCmd() *cobra.Command {
	var keepRemote bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke and remove the stored API key",
		Long:  "Revokes the stored API key on the server, then removes it from the config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(!keepRemote)
		},
	}

	cmd.Flags().BoolVar(&keepRemote, "keep-remote", false, "only forget the key locally")

	return cmd
}

func runLogout(revoke bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.APIKey == "" {
		fmt.Println("Not logged in.")
		return nil
	}

	if revoke {
		if err := revokeAPIKey(client.New(getServerURL(), cfg.APIKey), cfg.APIKey); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not revoke key on server: %v\n", err)
		}
	}

	cfg.APIKey = ""
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println("✓ Logged out. API key removed.")
	return nil
}

// revokeAPIKey deletes the server-side key whose stored prefix matches rawKey.
func revokeAPIKey(c *client.Client, rawKey string) error {
	keys, err := c.ListAPIKeys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k.KeyPrefix != "" && strings.HasPrefix(rawKey, k.KeyPrefix) {
			return c.DeleteAPIKey(k.ID)
		}
	}
	return fmt.Errorf("key not found on server")
}
