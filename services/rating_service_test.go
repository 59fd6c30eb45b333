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

func TestRatingSubmit(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewRatingService(db)
	ctx := context.Background()

	acme := createUser(t, db, model.RoleCompany, "acme")
	student := createUser(t, db, model.RoleStudent, "sam")
	faculty := createUser(t, db, model.RoleFaculty, "prof")

	rating, err := svc.Submit(ctx, acme, SubmitRatingRequest{StudentID: student.ID, Feedback: " Solid work ", Score: 5})
	require.NoError(t, err)
	assert.Equal(t, "Solid work", rating.Feedback)

	for _, score := range []int{0, 6, -1} {
		_, err := svc.Submit(ctx, acme, SubmitRatingRequest{StudentID: student.ID, Score: score})
		assert.ErrorIs(t, err, apperr.ErrValidation, "score %d", score)
	}

	_, err = svc.Submit(ctx, faculty, SubmitRatingRequest{StudentID: student.ID, Score: 3})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Submit(ctx, acme, SubmitRatingRequest{StudentID: faculty.ID, Score: 3})
	assert.True(t, apperr.IsNotFound(err))

	ratings, err := svc.ListForStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, ratings, 1)
}
