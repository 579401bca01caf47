package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/homees-app/homees/internal/demande"
)

func newDemandesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demandes",
		Short: "List and answer management requests",
		Long: `List the demandes you take part in. Subcommands show a thread,
reply to it, or change its status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemandesList()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a demande and its messages",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDemandeShow(args[0])
			},
		},
		&cobra.Command{
			Use:   "reply <id> <message>",
			Short: "Send a message on a demande",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDemandeReply(args[0], strings.Join(args[1:], " "))
			},
		},
		&cobra.Command{
			Use:   "statut <id> <acceptee|refusee|terminee>",
			Short: "Change a demande's status",
			Long: `Change a demande's status.

Only the manager can accept or refuse a pending demande. Either side can mark
an accepted demande as terminee.`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDemandeStatut(args[0], args[1])
			},
		},
	)

	return cmd
}

func runDemandesList() error {
	list, err := newAPIClient().ListDemandes()
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(list)
	}
	return printDemandeTable(list)
}

func runDemandeShow(id string) error {
	detail, err := newAPIClient().GetDemande(id)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(detail)
	}

	d := detail.Demande
	fmt.Printf("Demande #%s\n", d.ID)
	fmt.Printf("  Sujet:   %s\n", d.Sujet)
	fmt.Printf("  Statut:  %s\n", d.Statut.Label())
	if d.ProprieteID != nil {
		fmt.Printf("  Bien:    %s\n", *d.ProprieteID)
	}
	fmt.Printf("  Créée:   %s\n\n", d.CreatedAt.Format("2006-01-02 15:04"))
	printMessages(detail.Messages, d)
	return nil
}

func runDemandeReply(id, contenu string) error {
	contenu = strings.TrimSpace(contenu)
	if contenu == "" {
		return fmt.Errorf("message is empty")
	}

	m, err := newAPIClient().SendMessage(id, contenu)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(m)
	}
	fmt.Printf("Message #%s sent.\n", m.ID)
	return nil
}

func parseStatut(s string) (demande.Statut, error) {
	switch st := demande.Statut(strings.ToLower(strings.TrimSpace(s))); st {
	case demande.Acceptee, demande.Refusee, demande.Terminee:
		return st, nil
	default:
		return "", fmt.Errorf("invalid statut %q (want acceptee, refusee or terminee)", s)
	}
}

func runDemandeStatut(id, s string) error {
	statut, err := parseStatut(s)
	if err != nil {
		return err
	}

	d, err := newAPIClient().SetDemandeStatut(id, statut)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(d)
	}
	fmt.Printf("Demande #%s: %s\n", d.ID, d.Statut.Label())
	return nil
}
