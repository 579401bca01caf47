package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homees-app/homees/internal/client"
)

// apiKeyPrefix matches the keys issued by /auth/cli.
const apiKeyPrefix = "hm_"

type loginOptions struct {
	server    string
	key       string
	noBrowser bool
}

func newLoginCmd() *cobra.Command {
	var opts loginOptions

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store an API key",
		Long: `Opens a browser on the server's /auth/cli page to sign in and generate an
API key, then stores the pasted key in ~/.config/homees/config.yaml.

Use --key to store an existing key without the browser step.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(opts, os.Stdin)
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "", "server URL (default: from config or http://localhost:8080)")
	cmd.Flags().StringVar(&opts.key, "key", "", "API key to store instead of prompting")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "print the sign-in URL without opening a browser")

	return cmd
}

func runLogin(opts loginOptions, in io.Reader) error {
	serverURL := opts.server
	if serverURL == "" {
		serverURL = getServerURL()
	}

	key := strings.TrimSpace(opts.key)
	if key == "" {
		authURL := strings.TrimRight(serverURL, "/") + "/auth/cli"
		fmt.Printf("Sign in at: %s\n\n", authURL)
		if !opts.noBrowser {
			if err := openBrowser(authURL); err != nil {
				fmt.Fprintf(os.Stderr, "Could not open browser: %v\n", err)
			}
		}

		fmt.Print("Paste your API key: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading input: %w", err)
		}
		key = strings.TrimSpace(line)
	}

	if err := validateAPIKey(key); err != nil {
		return err
	}

	me, err := client.New(serverURL, key).Me()
	if err != nil {
		return fmt.Errorf("checking API key: %w", err)
	}

	// Load existing config to preserve other fields
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}

	cfg.APIKey = key
	if opts.server != "" {
		cfg.ServerURL = opts.server
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("✓ Logged in as %s (%s).\n", me.User.Email, me.User.Role.Label())
	return nil
}

// validateAPIKey checks that the key is non-empty and has the expected prefix.
func validateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("no API key provided")
	}
	if !strings.HasPrefix(key, apiKeyPrefix) {
		return fmt.Errorf("invalid API key format (should start with %s)", apiKeyPrefix)
	}
	return nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
