package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/intern-track/database/dbtest"
	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/utils/apperr"
)

func TestInternshipPostAndList(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewInternshipService(db)
	ctx := context.Background()

	acme := createUser(t, db, model.RoleCompany, "acme")
	globex := createUser(t, db, model.RoleCompany, "globex")
	student := createUser(t, db, model.RoleStudent, "sam")

	posted, err := svc.Post(ctx, acme, PostInternshipRequest{Title: "  Backend Intern ", Location: "Pune"})
	require.NoError(t, err)
	assert.True(t, posted.Verified)
	assert.Equal(t, "Backend Intern", posted.Title)
	assert.Equal(t, "acme Inc", posted.CompanyName)
	assert.Equal(t, model.InternshipModeRemote, posted.Mode)

	_, err = svc.Post(ctx, student, PostInternshipRequest{Title: "Nope"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Post(ctx, acme, PostInternshipRequest{Title: "   "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	for i := 0; i < 7; i++ {
		_, err := svc.Post(ctx, globex, PostInternshipRequest{Title: "Data Intern", Mode: model.InternshipModeHybrid})
		require.NoError(t, err)
	}

	verified, err := svc.ListVerified(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, verified, DefaultVerifiedLimit)

	verified, err = svc.ListVerified(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, verified, 3)

	mine, err := svc.ListByCompany(ctx, acme.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, posted.ID, mine[0].ID)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}

func TestInternshipDeleteByOwnerOnly(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewInternshipService(db)
	ctx := context.Background()

	acme := createUser(t, db, model.RoleCompany, "acme")
	globex := createUser(t, db, model.RoleCompany, "globex")

	posted, err := svc.Post(ctx, acme, PostInternshipRequest{Title: "Backend Intern"})
	require.NoError(t, err)

	err = svc.Delete(ctx, globex.ID, posted.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, acme.ID, posted.ID))

	_, err = svc.Get(ctx, posted.ID)
	assert.True(t, apperr.IsNotFound(err))

	err = svc.Delete(ctx, acme.ID, posted.ID)
	assert.True(t, apperr.IsNotFound(err))
}
