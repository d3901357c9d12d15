package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/theater-booking/internal/model"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "Password123!"

var seedUsers = []struct {
	name string
	role string
}{
	{"bob", model.RoleUser},
	{"sue", model.RoleUser},
	{"galkadi", model.RoleAdmin},
}

var seedTheaters = []struct {
	theater   model.Theater
	byManager bool // managed by bob
}{
	{model.Theater{Name: "AMC Palace 10", Address: "123 Main St, Springfield", SeatCount: 150}, true},
	{model.Theater{Name: "Regal Cinema", Address: "456 Elm St, Shelbyville", SeatCount: 200}, false},
	{model.Theater{Name: "Grand Theater", Address: "789 Broadway Ave, Metropolis", SeatCount: 300}, true},
	{model.Theater{Name: "Vintage Drive-In", Address: "101 Retro Rd, Smallville", SeatCount: 75}, false},
}

// Bootstrap seeds the well-known roles, users and theaters.  It is
// idempotent: existing roles and users are left alone and theaters are
// only seeded into an empty table.
type Bootstrap struct {
	Users    CredentialStore
	Roles    RoleRegistry
	Theaters TheaterStore
	Log      zerolog.Logger
}

func (b *Bootstrap) Run(ctx context.Context) error {
	if err := b.seedRoles(ctx); err != nil {
		return err
	}
	if err := b.seedUsers(ctx); err != nil {
		return err
	}
	return b.seedTheaters(ctx)
}

func (b *Bootstrap) seedRoles(ctx context.Context) error {
	for _, name := range []string{model.RoleAdmin, model.RoleUser} {
		ok, err := b.Roles.Exists(ctx, name)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
		if ok {
			continue
		}
		if _, err := b.Roles.Create(ctx, name); err != nil && !errors.Is(err, model.ErrDuplicateRole) {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
		b.Log.Info().Str("role", name).Msg("seeded role")
	}
	return nil
}

func (b *Bootstrap) seedUsers(ctx context.Context) error {
	for _, su := range seedUsers {
		_, err := b.Users.FindByUsername(ctx, su.name)
		if err == nil {
			continue
		}
		if !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("seed user %s: %w", su.name, err)
		}
		roles, err := b.Roles.Resolve(ctx, []string{su.role})
		if err != nil {
			return fmt.Errorf("seed user %s: %w", su.name, err)
		}
		if _, err := b.Users.Create(ctx, su.name, SeedPassword, roles); err != nil && !errors.Is(err, model.ErrDuplicateUsername) {
			return fmt.Errorf("seed user %s: %w", su.name, err)
		}
		b.Log.Info().Str("username", su.name).Str("role", su.role).Msg("seeded user")
	}
	return nil
}

func (b *Bootstrap) seedTheaters(ctx context.Context) error {
	n, err := b.Theaters.Count(ctx)
	if err != nil {
		return fmt.Errorf("count theaters: %w", err)
	}
	if n > 0 {
		return nil
	}
	bob, err := b.Users.FindByUsername(ctx, "bob")
	if err != nil {
		return fmt.Errorf("seed theaters: manager bob: %w", err)
	}
	for _, st := range seedTheaters {
		t := st.theater
		if st.byManager {
			id := bob.ID
			t.ManagerID = &id
		}
		if _, err := b.Theaters.Insert(ctx, t); err != nil {
			return fmt.Errorf("seed theater %q: %w", t.Name, err)
		}
	}
	b.Log.Info().Int("count", len(seedTheaters)).Msg("seeded theaters")
	return nil
}
