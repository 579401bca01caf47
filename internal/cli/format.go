package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/homees-app/homees/internal/demande"
	"github.com/homees-app/homees/internal/notification"
	"github.com/homees-app/homees/internal/property"
	"github.com/homees-app/homees/internal/user"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes a header, a dashed separator and rows through a tabwriter.
func printTable(header []string, rows [][]string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	sep := make([]string, len(header))
	for i, h := range header {
		sep[i] = strings.Repeat("-", len([]rune(h)))
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, strings.Join(sep, "\t")); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// printPropertyTable prints a list of properties as a formatted table.
func printPropertyTable(props []*property.Property) error {
	if len(props) == 0 {
		fmt.Println("No properties found.")
		return nil
	}

	rows := make([][]string, 0, len(props))
	for _, p := range props {
		surface := "-"
		if p.Surface != nil {
			surface = fmt.Sprintf("%g m²", *p.Surface)
		}
		loyer := "-"
		if p.Loyer != nil {
			loyer = formatEuro(*p.Loyer)
		}
		dpe := "-"
		if p.DPE != nil {
			dpe = *p.DPE
		}
		managed := "non"
		if p.GestionnaireID != nil {
			managed = "oui"
		}
		rows = append(rows, []string{
			p.ID, truncate(p.Titre, 30), p.Ville, p.Type.Label(), surface, loyer, dpe, managed,
		})
	}

	if err := printTable([]string{"ID", "TITRE", "VILLE", "TYPE", "SURFACE", "LOYER", "DPE", "GÉRÉ"}, rows); err != nil {
		return err
	}
	fmt.Printf("\nTotal: %d properties\n", len(props))
	return nil
}

// printDemandeTable prints demandes, newest first as returned by the API.
func printDemandeTable(list []*demande.Demande) error {
	if len(list) == 0 {
		fmt.Println("No demandes.")
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, d := range list {
		rows = append(rows, []string{
			d.ID, truncate(d.Sujet, 40), d.Statut.Label(), d.UpdatedAt.Format("2006-01-02"),
		})
	}
	return printTable([]string{"ID", "SUJET", "STATUT", "MAJ"}, rows)
}

// printMessages prints a demande thread, labelling each sender by side.
func printMessages(msgs []*demande.Message, d *demande.Demande) {
	if len(msgs) == 0 {
		fmt.Println("No messages.")
		return
	}

	for _, m := range msgs {
		from := user.RoleGestionnaire.Label()
		if m.ExpediteurID == d.ProprietaireID {
			from = user.RoleProprietaire.Label()
		}
		fmt.Printf("[%s] %s\n  %s\n\n", m.CreatedAt.Format("2006-01-02 15:04"), from, m.Contenu)
	}
}

// printNotifications prints notifications with unread ones marked by a dot.
func printNotifications(list []*notification.Notification) {
	if len(list) == 0 {
		fmt.Println("No notifications.")
		return
	}

	for _, n := range list {
		mark := " "
		if !n.Lu {
			mark = "•"
		}
		fmt.Printf("%s [%s] %s\n", mark, n.CreatedAt.Format("2006-01-02 15:04"), n.Message)
		if n.Lien != "" {
			fmt.Printf("    %s%s\n", strings.TrimRight(getServerURL(), "/"), n.Lien)
		}
	}
}

// printUserTable prints accounts as a table.
func printUserTable(users []*user.User) error {
	if len(users) == 0 {
		fmt.Println("No users.")
		return nil
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID, u.Email, u.DisplayName(), u.Role.Label()})
	}
	return printTable([]string{"ID", "EMAIL", "NOM", "RÔLE"}, rows)
}

// formatEuro formats an amount in whole euros with French digit grouping.
func formatEuro(amount float64) string {
	n := int64(math.Round(amount))
	neg := n < 0
	if neg {
		n = -n
	}

	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := strings.Join(parts, " ") + " €"
	if neg {
		out = "-" + out
	}
	return out
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
