package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sahilchouksey/intern-track/database/dbtest"
	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/utils/auth"
)

func init() {
	auth.Cost = bcrypt.MinCost
}

func TestSeedAllIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	seeder := NewSeeder(db, "demo-pass", nil)

	require.NoError(t, seeder.SeedAll())
	require.NoError(t, seeder.SeedAll())

	var users, internships int64
	require.NoError(t, db.Model(&model.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&model.Internship{}).Count(&internships).Error)
	assert.Equal(t, int64(4), users)
	assert.Equal(t, int64(2), internships)

	var student model.User
	require.NoError(t, db.Where("role = ?", model.RoleStudent).First(&student).Error)
	assert.NotNil(t, student.FacultyID)
	assert.NoError(t, auth.VerifyPassword(student.PasswordHash, "demo-pass"))
}

func TestSeedAllRequiresPassword(t *testing.T) {
	assert.Error(t, NewSeeder(dbtest.Open(t), "", nil).SeedAll())
}

func TestGORMStoreMigratesAndPings(t *testing.T) {
	store := NewGORMStore(dbtest.Open(t), nil)
	require.NoError(t, store.Init())
	assert.NoError(t, store.HealthCheck())
}
