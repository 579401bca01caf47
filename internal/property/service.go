package property

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/homees-app/homees/internal/geo"
)

// Geocoder resolves a free-form address. *geo.Client implements it.
type Geocoder interface {
	Lookup(ctx context.Context, address string) (*geo.Result, error)
}

// Service provides property business logic.
type Service struct {
	repo     *Repository
	geocoder Geocoder
}

// NewService creates a property service. A nil geocoder skips address normalization.
func NewService(repo *Repository, geocoder Geocoder) *Service {
	return &Service{repo: repo, geocoder: geocoder}
}

// Create fills in city and postal code from the geocoder when they are
// missing, then stores the property. This is the only operation that hits
// external APIs; a failed lookup keeps the address as typed.
func (s *Service) Create(ctx context.Context, p *Property) (*Property, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if s.geocoder != nil && (p.Ville == "" || p.CodePostal == "") {
		res, err := s.geocoder.Lookup(ctx, p.Adresse)
		if err != nil {
			slog.Warn("address lookup failed", "adresse", p.Adresse, "error", err)
		} else {
			if p.Ville == "" {
				p.Ville = res.Ville
			}
			if p.CodePostal == "" {
				p.CodePostal = res.CodePostal
			}
		}
	}

	saved, err := s.repo.Insert(p)
	if err != nil {
		return nil, fmt.Errorf("saving property: %w", err)
	}

	return saved, nil
}
