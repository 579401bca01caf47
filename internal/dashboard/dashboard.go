// Package dashboard assembles the data shown on each role's landing page.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/homees-app/homees/internal/demande"
	"github.com/homees-app/homees/internal/intervention"
	"github.com/homees-app/homees/internal/property"
	"github.com/homees-app/homees/internal/user"
)

// PropertyLister lists properties.
type PropertyLister interface {
	List(opts property.ListOptions) ([]*property.Property, error)
}

// DemandeLister lists a user's demandes.
type DemandeLister interface {
	ListForUser(userID string) ([]*demande.Demande, error)
}

// UnreadCounter counts unread notifications.
type UnreadCounter interface {
	UnreadCount(userID string) (int, error)
}

// InterventionLister lists upcoming interventions.
type InterventionLister interface {
	ListUpcoming(proprieteIDs []string, from time.Time) ([]*intervention.Intervention, error)
}

// UserLister lists users by role.
type UserLister interface {
	List(role user.Role) ([]*user.User, error)
}

// Stats are platform totals shown to admins.
type Stats struct {
	Proprietaires int `json:"proprietaires"`
	Gestionnaires int `json:"gestionnaires"`
	Proprietes    int `json:"proprietes"`
}

// Dashboard is everything a landing page renders.
type Dashboard struct {
	User          *user.User                   `json:"user"`
	Properties    []*property.Property         `json:"properties"`
	Demandes      []*demande.Demande           `json:"demandes"`
	Pending       int                          `json:"pending"` // demandes en attente
	Unread        int                          `json:"unread"`
	Interventions []*intervention.Intervention `json:"interventions"`
	Stats         *Stats                       `json:"stats,omitempty"`
}

// Loader gathers dashboard data from the repositories.
type Loader struct {
	Properties    PropertyLister
	Demandes      DemandeLister
	Notifications UnreadCounter
	Interventions InterventionLister
	Users         UserLister

	now func() time.Time
}

// Load fetches the user's dashboard, querying the repositories concurrently.
func (l *Loader) Load(ctx context.Context, u *user.User) (*Dashboard, error) {
	d := &Dashboard{User: u}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		props, err := l.Properties.List(propertyScope(u))
		if err != nil {
			return fmt.Errorf("loading properties: %w", err)
		}
		d.Properties = props
		if err := ctx.Err(); err != nil {
			return err
		}

		ids := make([]string, len(props))
		for i, p := range props {
			ids[i] = p.ID
		}
		upcoming, err := l.Interventions.ListUpcoming(ids, l.today())
		if err != nil {
			return fmt.Errorf("loading interventions: %w", err)
		}
		d.Interventions = upcoming
		return nil
	})

	g.Go(func() error {
		list, err := l.Demandes.ListForUser(u.ID)
		if err != nil {
			return fmt.Errorf("loading demandes: %w", err)
		}
		d.Demandes = list
		for _, dm := range list {
			if dm.Statut == demande.EnAttente {
				d.Pending++
			}
		}
		return nil
	})

	g.Go(func() error {
		n, err := l.Notifications.UnreadCount(u.ID)
		if err != nil {
			return fmt.Errorf("counting notifications: %w", err)
		}
		d.Unread = n
		return nil
	})

	if u.Role == user.RoleAdmin {
		g.Go(func() error {
			stats, err := l.stats()
			if err != nil {
				return err
			}
			d.Stats = stats
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if d.Stats != nil {
		d.Stats.Proprietes = len(d.Properties)
	}
	return d, nil
}

func (l *Loader) stats() (*Stats, error) {
	owners, err := l.Users.List(user.RoleProprietaire)
	if err != nil {
		return nil, fmt.Errorf("counting proprietaires: %w", err)
	}
	managers, err := l.Users.List(user.RoleGestionnaire)
	if err != nil {
		return nil, fmt.Errorf("counting gestionnaires: %w", err)
	}
	return &Stats{Proprietaires: len(owners), Gestionnaires: len(managers)}, nil
}

// propertyScope returns which properties a role sees on its dashboard.
// Admins see every property.
func propertyScope(u *user.User) property.ListOptions {
	switch u.Role {
	case user.RoleProprietaire:
		return property.ListOptions{ProprietaireID: u.ID}
	case user.RoleGestionnaire:
		return property.ListOptions{GestionnaireID: u.ID}
	default:
		return property.ListOptions{}
	}
}

func (l *Loader) today() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}
