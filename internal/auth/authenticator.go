package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/homees-app/homees/internal/supabase"
	"github.com/homees-app/homees/internal/user"
)

// ErrInvalidCredentials is returned when sign-in fails.
var ErrInvalidCredentials = errors.New("email ou mot de passe incorrect")

// SignUpRequest carries the fields of the registration form.
type SignUpRequest struct {
	Email     string
	Password  string
	Nom       string
	Prenom    string
	Telephone string
	Role      user.Role
}

// Validate checks the required fields. Admin accounts cannot self-register.
func (r *SignUpRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if len(r.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if r.Role != user.RoleProprietaire && r.Role != user.RoleGestionnaire {
		return fmt.Errorf("role must be proprietaire or gestionnaire")
	}
	return nil
}

// Authenticator verifies credentials and registers accounts.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*user.User, error)
	SignUp(ctx context.Context, req SignUpRequest) (*user.User, error)
}

// UserStore is the subset of the user repository the authenticators need.
type UserStore interface {
	Create(u *user.User) (*user.User, error)
	GetByID(id string) (*user.User, error)
	GetByEmail(email string) (*user.User, error)
}

// GoTrue is the Supabase auth API used by SupabaseAuthenticator.
type GoTrue interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*supabase.User, error)
}

// SupabaseAuthenticator delegates credentials to Supabase Auth and keeps the
// local utilisateurs row in sync with the Supabase user ID.
type SupabaseAuthenticator struct {
	client     GoTrue
	users      UserStore
	adminEmail string
}

// NewSupabaseAuthenticator creates an authenticator backed by Supabase.
func NewSupabaseAuthenticator(client GoTrue, users UserStore, adminEmail string) *SupabaseAuthenticator {
	return &SupabaseAuthenticator{client: client, users: users, adminEmail: strings.ToLower(adminEmail)}
}

// SignIn checks the password with Supabase and returns the local user,
// creating it from the Supabase metadata on first sign-in.
func (a *SupabaseAuthenticator) SignIn(ctx context.Context, email, password string) (*user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	session, err := a.client.SignInWithPassword(ctx, email, password)
	if errors.Is(err, supabase.ErrInvalidCredentials) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	u, err := a.users.GetByID(session.User.ID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	slog.Info("creating local user from supabase account", "user_id", session.User.ID)
	return a.users.Create(userFromMetadata(session.User, a.adminEmail))
}

// SignUp registers the account with Supabase and creates the local user.
func (a *SupabaseAuthenticator) SignUp(ctx context.Context, req SignUpRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := a.users.GetByEmail(req.Email); err == nil {
		return nil, user.ErrEmailTaken
	}

	su, err := a.client.SignUp(ctx, req.Email, req.Password, map[string]any{
		"nom":       req.Nom,
		"prenom":    req.Prenom,
		"telephone": req.Telephone,
		"role":      string(req.Role),
	})
	if err != nil {
		return nil, err
	}

	return a.users.Create(&user.User{
		ID:        su.ID,
		Email:     req.Email,
		Nom:       req.Nom,
		Prenom:    req.Prenom,
		Telephone: req.Telephone,
		Role:      roleFor(req.Email, req.Role, a.adminEmail),
	})
}

func userFromMetadata(su supabase.User, adminEmail string) *user.User {
	meta := func(k string) string {
		v, _ := su.UserMetadata[k].(string)
		return v
	}
	role := user.Role(meta("role"))
	if role != user.RoleGestionnaire {
		role = user.RoleProprietaire
	}
	return &user.User{
		ID:        su.ID,
		Email:     su.Email,
		Nom:       meta("nom"),
		Prenom:    meta("prenom"),
		Telephone: meta("telephone"),
		Role:      roleFor(su.Email, role, adminEmail),
	}
}

func roleFor(email string, requested user.Role, adminEmail string) user.Role {
	if adminEmail != "" && strings.EqualFold(email, adminEmail) {
		return user.RoleAdmin
	}
	return requested
}

// DevAuthenticator signs in any existing user with a non-empty password.
// Only for local development without a Supabase project.
type DevAuthenticator struct {
	users      UserStore
	adminEmail string
}

// NewDevAuthenticator creates a development authenticator.
func NewDevAuthenticator(users UserStore, adminEmail string) *DevAuthenticator {
	return &DevAuthenticator{users: users, adminEmail: strings.ToLower(adminEmail)}
}

// SignIn returns the user with that email if the password is non-empty.
func (a *DevAuthenticator) SignIn(_ context.Context, email, password string) (*user.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := a.users.GetByEmail(email)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	return u, err
}

// SignUp creates the local user directly.
func (a *DevAuthenticator) SignUp(_ context.Context, req SignUpRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return a.users.Create(&user.User{
		Email:     req.Email,
		Nom:       req.Nom,
		Prenom:    req.Prenom,
		Telephone: req.Telephone,
		Role:      roleFor(req.Email, req.Role, a.adminEmail),
	})
}
