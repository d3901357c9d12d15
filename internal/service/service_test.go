package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/theater-booking/internal/model"
)

type fixture struct {
	db       *memDB
	users    memUsers
	roles    memRoles
	theaters memTheaters
	sessions *memSessions
	events   *recordingPublisher

	identity *IdentityService
	theater  *TheaterService
	user     *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newMemDB()
	f := &fixture{
		db:       db,
		users:    memUsers{db},
		roles:    memRoles{db},
		theaters: memTheaters{db},
		sessions: newMemSessions(),
		events:   &recordingPublisher{},
	}
	boot := &Bootstrap{Users: f.users, Roles: f.roles, Theaters: f.theaters, Log: zerolog.Nop()}
	require.NoError(t, boot.Run(context.Background()))

	var err error
	f.identity, err = NewIdentityService(f.users, f.roles, f.sessions, f.events, "test-secret", time.Hour, bcrypt.MinCost)
	require.NoError(t, err)
	f.theater = NewTheaterService(f.theaters, f.events)
	f.user = NewUserService(f.users, f.roles, f.sessions, f.events)
	return f
}

// as authenticates name with the seed password.
func (f *fixture) as(t *testing.T, name string) model.Principal {
	t.Helper()
	p, err := f.identity.Authenticate(context.Background(), name, SeedPassword)
	require.NoError(t, err)
	return p
}

func (f *fixture) userID(t *testing.T, name string) int64 {
	t.Helper()
	u, err := f.users.FindByUsername(context.Background(), name)
	require.NoError(t, err)
	return u.ID
}
