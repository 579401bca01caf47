package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homees-app/homees/internal/assistant"
	"github.com/homees-app/homees/internal/client"
)

// chatHistoryLimit bounds the turns resent with each message.
const chatHistoryLimit = 20

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the Homees assistant",
		Long: `Ask the Homees assistant a question about property management.

With a message, prints one reply. Without arguments, starts an interactive
session that keeps the conversation history; an empty line or Ctrl-D exits.

Examples:
  homees chat "Quels frais pour une gestion locative à Lyon ?"
  homees chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient()
			if len(args) > 0 {
				return runChatOnce(c, strings.Join(args, " "))
			}
			return runChatLoop(c, os.Stdin, os.Stdout)
		},
	}
}

func runChatOnce(c *client.Client, message string) error {
	resp, err := c.Chat(message, nil)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(resp)
	}
	fmt.Println(resp.Response)
	return nil
}

func runChatLoop(c *client.Client, in io.Reader, out io.Writer) error {
	var history []assistant.Turn
	scanner := bufio.NewScanner(in)

	for {
		if _, err := fmt.Fprint(out, "> "); err != nil {
			return err
		}
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			break
		}

		resp, err := c.Chat(message, history)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%s\n\n", resp.Response); err != nil {
			return err
		}

		history = append(history,
			assistant.Turn{Text: message, IsUser: true},
			assistant.Turn{Text: resp.Response},
		)
		if len(history) > chatHistoryLimit {
			history = history[len(history)-chatHistoryLimit:]
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
