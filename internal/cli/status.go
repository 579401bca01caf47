package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/homees-app/homees/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the server and shows which account the stored API key belongs to.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	serverURL := getServerURL()
	apiKey := getAPIKey()

	fmt.Printf("Server:  %s\n", serverURL)

	if apiKey == "" {
		fmt.Println("API Key: not configured")
		fmt.Println("\nRun 'homees login' to authenticate.")
		return nil
	}

	prefix := apiKey
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	fmt.Printf("API Key: %s…\n", prefix)

	me, err := client.New(serverURL, apiKey).Me()
	if err != nil {
		fmt.Printf("Status:  ✗ %v\n", err)
		fmt.Println("\nRun 'homees login' to re-authenticate.")
		return nil
	}

	fmt.Println("Status:  ✓ connected and authenticated")
	fmt.Printf("Account: %s (%s)\n", me.User.Email, me.User.Role.Label())
	return nil
}
