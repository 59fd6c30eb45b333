package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/intern-track/database/dbtest"
	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/utils/apperr"
)

func TestCertificateListingAndReview(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewCertificateService(db)
	ctx := context.Background()

	student := createUser(t, db, model.RoleStudent, "sam")
	other := createUser(t, db, model.RoleStudent, "lee")
	faculty := createUser(t, db, model.RoleFaculty, "prof")

	for i, name := range []string{"first.pdf", "second.pdf", "third.pdf"} {
		require.NoError(t, db.Create(&model.Certificate{
			StudentID: student.ID,
			FileName:  name,
			FileURL:   "https://blobs.test/" + name,
			Status:    model.ReviewStatusPending,
			CreatedAt: baseTime.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
	require.NoError(t, db.Create(&model.Certificate{
		StudentID: other.ID,
		FileName:  "other.pdf",
		FileURL:   "https://blobs.test/other.pdf",
		Status:    model.ReviewStatusPending,
	}).Error)

	mine, err := svc.ListByStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, "third.pdf", mine[0].FileName)
	assert.Equal(t, "first.pdf", mine[2].FileName)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	reviewed, err := svc.Review(ctx, faculty, mine[0].ID, "Approved")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, faculty.ID, *reviewed.ReviewedBy)

	var stored model.Certificate
	require.NoError(t, db.First(&stored, mine[0].ID).Error)
	assert.Equal(t, model.ReviewStatusApproved, stored.Status)
	require.NotNil(t, stored.ReviewedAt)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	_, err = svc.Review(ctx, student, mine[1].ID, "approved")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.Review(ctx, faculty, mine[1].ID, "shredded")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Review(ctx, faculty, 9999, "approved")
	assert.True(t, apperr.IsNotFound(err))
}
