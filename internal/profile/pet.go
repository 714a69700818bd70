package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"ashenrealm/internal/game"
)

// GetPet retrieves the profile's pet.
func (r *Repository) GetPet(ctx context.Context, userID string) (*game.Pet, error) {
	var p game.Pet
	err := pgxscan.Get(ctx, r.db, &p,
		`SELECT user_id, name, food, drink, joy, love, last_care FROM pets WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrPetNotFound
		}
		return nil, fmt.Errorf("get pet: %w", err)
	}
	return &p, nil
}

// SavePet persists the pet's current stats and care timestamp.
func (r *Repository) SavePet(ctx context.Context, p *game.Pet) error {
	_, err := r.db.Exec(ctx,
		`UPDATE pets SET name = $2, food = $3, drink = $4, joy = $5, love = $6, last_care = $7 WHERE user_id = $1`,
		p.UserID, p.Name, p.Food, p.Drink, p.Joy, p.Love, p.LastCare)
	if err != nil {
		return fmt.Errorf("save pet: %w", err)
	}
	return nil
}
