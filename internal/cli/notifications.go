package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNotificationsCmd() *cobra.Command {
	var (
		unread  bool
		readAll bool
	)

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show your notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if readAll {
				return runNotificationsReadAll()
			}
			return runNotifications(unread)
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	cmd.Flags().BoolVar(&readAll, "read-all", false, "mark every notification as read")

	return cmd
}

func runNotifications(unread bool) error {
	list, err := newAPIClient().Notifications(unread)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(list)
	}
	printNotifications(list)
	return nil
}

func runNotificationsReadAll() error {
	n, err := newAPIClient().MarkAllRead()
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(map[string]int64{"updated": n})
	}
	fmt.Printf("✓ %d notification(s) marked as read.\n", n)
	return nil
}
