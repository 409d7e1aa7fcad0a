package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/pkg/auth"
)

type memUsers struct {
	byName map[string]*models.User
}

func (m *memUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	_, ok := m.byName[username]
	return ok, nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	u.ID = int64(len(m.byName) + 1)
	m.byName[u.Username] = u
	return nil
}

type memGrades struct {
	seen    map[string]bool
	failOn  string
	created int
}

func (m *memGrades) Create(_ context.Context, g *models.Grade) error {
	if g.String() == m.failOn {
		return errors.New("insert failed")
	}
	if !m.seen[g.String()] {
		m.seen[g.String()] = true
		m.created++
	}
	return nil
}

func TestCreateDefaultDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	users := &memUsers{byName: map[string]*models.User{}}
	grades := &memGrades{seen: map[string]bool{}}
	su := Superuser{Username: "admin", Email: "admin@school.test", Password: "s3cret-pass"}

	require.NoError(t, CreateDefaultData(ctx, users, grades, su, zerolog.Nop()))
	require.NoError(t, CreateDefaultData(ctx, users, grades, su, zerolog.Nop()))

	assert.Equal(t, 12*len(DefaultSections), grades.created)
	require.Len(t, users.byName, 1)

	admin := users.byName["admin"]
	assert.Equal(t, models.RoleSuperuser, admin.Role)
	assert.True(t, admin.IsActive)
	assert.True(t, auth.CheckPassword(admin.Password, "s3cret-pass"))
}

func TestCreateDefaultDataSkipsUnconfiguredSuperuser(t *testing.T) {
	users := &memUsers{byName: map[string]*models.User{}}
	grades := &memGrades{seen: map[string]bool{}}

	require.NoError(t, CreateDefaultData(context.Background(), users, grades, Superuser{}, zerolog.Nop()))
	assert.Empty(t, users.byName)
}

func TestCreateDefaultDataCollectsErrors(t *testing.T) {
	users := &memUsers{byName: map[string]*models.User{}}
	grades := &memGrades{seen: map[string]bool{}, failOn: models.Grade{Name: "3", Section: "B"}.String()}

	err := CreateDefaultData(context.Background(), users, grades, Superuser{Username: "admin", Password: "pw"}, zerolog.Nop())
	require.Error(t, err)
	assert.Equal(t, 12*len(DefaultSections)-1, grades.created)
	assert.Len(t, users.byName, 1)
}
