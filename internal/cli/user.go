package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/homees-app/homees/internal/user"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts in the local database",
		Long:  "Add, list, re-role and remove accounts directly in the server's SQLite database. Run on the host where 'homees serve' runs.",
	}

	cmd.AddCommand(newUserAddCmd(), newUserListCmd(), newUserRoleCmd(), newUserRemoveCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var u user.User
	var role string

	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Create an account",
		Long: `Create an account.

Roles: proprietaire, gestionnaire, admin

Examples:
  homees user add claire@example.fr --role gestionnaire --prenom Claire --nom Martin
  homees user add root@example.fr --role admin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u.Email = args[0]
			u.Role = user.Role(role)
			return runUserAdd(&u)
		},
	}

	cmd.Flags().StringVar(&role, "role", string(user.RoleProprietaire), "account role")
	cmd.Flags().StringVar(&u.Nom, "nom", "", "last name")
	cmd.Flags().StringVar(&u.Prenom, "prenom", "", "first name")
	cmd.Flags().StringVar(&u.Telephone, "telephone", "", "phone number")

	return cmd
}

func runUserAdd(u *user.User) error {
	if !user.ValidRole(string(u.Role)) {
		return fmt.Errorf("invalid role %q (want proprietaire, gestionnaire or admin)", u.Role)
	}

	database, err := openDB("")
	if err != nil {
		return err
	}
	defer closeDB(database)

	created, err := user.NewRepository(database).Create(u)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(created)
	}
	fmt.Printf("Created %s (%s) #%s\n", created.Email, created.Role.Label(), created.ID)
	return nil
}

func newUserListCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(role)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "only list accounts with this role")

	return cmd
}

func runUserList(role string) error {
	if role != "" && !user.ValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}

	database, err := openDB("")
	if err != nil {
		return err
	}
	defer closeDB(database)

	users, err := user.NewRepository(database).List(user.Role(role))
	if err != nil {
		return err
	}

	if isJSON() {
		if users == nil {
			users = []*user.User{}
		}
		return printJSON(users)
	}
	return printUserTable(users)
}

func newUserRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role <email> <role>",
		Short: "Change an account's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserRole(args[0], args[1])
		},
	}
}

func runUserRole(email, role string) error {
	if !user.ValidRole(role) {
		return fmt.Errorf("invalid role %q (want proprietaire, gestionnaire or admin)", role)
	}

	database, err := openDB("")
	if err != nil {
		return err
	}
	defer closeDB(database)

	repo := user.NewRepository(database)
	u, err := repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if err := repo.UpdateRole(u.ID, user.Role(role)); err != nil {
		return err
	}

	fmt.Printf("%s is now %s.\n", u.Email, user.Role(role).Label())
	return nil
}

func newUserRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <email>",
		Short: "Delete an account and everything it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserRemove(args[0])
		},
	}
}

func runUserRemove(email string) error {
	database, err := openDB("")
	if err != nil {
		return err
	}
	defer closeDB(database)

	repo := user.NewRepository(database)
	u, err := repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if err := repo.Delete(u.ID); err != nil {
		return err
	}

	fmt.Printf("Removed %s.\n", u.Email)
	return nil
}
