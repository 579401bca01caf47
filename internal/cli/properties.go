package cli

import (
	"github.com/spf13/cobra"

	"github.com/homees-app/homees/internal/client"
)

func newPropertiesCmd() *cobra.Command {
	var opts client.ListOptions

	cmd := &cobra.Command{
		Use:   "properties",
		Short: "List your properties",
		Long:  "List the properties you own or manage, optionally filtered by city or energy class.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProperties(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Ville, "ville", "", "only properties in this city")
	cmd.Flags().StringVar(&opts.DPE, "dpe", "", "only properties with this DPE class (A-G)")

	return cmd
}

func runProperties(opts client.ListOptions) error {
	props, err := newAPIClient().ListProperties(opts)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(props)
	}
	return printPropertyTable(props)
}
