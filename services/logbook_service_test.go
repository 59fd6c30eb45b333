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

func TestLogbookEntriesAndFeedback(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewLogbookService(db)
	ctx := context.Background()

	faculty := createUser(t, db, model.RoleFaculty, "prof")
	otherFaculty := createUser(t, db, model.RoleFaculty, "dean")
	student := createUser(t, db, model.RoleStudent, "sam", withFaculty(faculty))
	loner := createUser(t, db, model.RoleStudent, "lee")

	entry, err := svc.Create(ctx, student, "  Set up the CI pipeline ")
	require.NoError(t, err)
	assert.Equal(t, "Set up the CI pipeline", entry.Content)
	require.NotNil(t, entry.FacultyID)
	assert.Equal(t, faculty.ID, *entry.FacultyID)

	_, err = svc.Create(ctx, student, " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Create(ctx, faculty, "not a student")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	unassigned, err := svc.Create(ctx, loner, "Read the onboarding docs")
	require.NoError(t, err)
	assert.Nil(t, unassigned.FacultyID)

	forProf, err := svc.ListByFaculty(ctx, faculty.ID)
	require.NoError(t, err)
	assert.Len(t, forProf, 1)

	_, err = svc.AddFeedback(ctx, otherFaculty, entry.ID, "looks fine")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.AddFeedback(ctx, student, entry.ID, "self review")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.AddFeedback(ctx, faculty, entry.ID, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.AddFeedback(ctx, faculty, 9999, "missing")
	assert.True(t, apperr.IsNotFound(err))

	reviewed, err := svc.AddFeedback(ctx, faculty, entry.ID, "Good progress")
	require.NoError(t, err)
	assert.Equal(t, "Good progress", reviewed.FacultyFeedback)

	// An unaddressed entry is claimed by the reviewer
	claimed, err := svc.AddFeedback(ctx, otherFaculty, unassigned.ID, "Welcome aboard")
	require.NoError(t, err)
	require.NotNil(t, claimed.FacultyID)
	assert.Equal(t, otherFaculty.ID, *claimed.FacultyID)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLogbookListByStudentNewestFirst(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewLogbookService(db)
	student := createUser(t, db, model.RoleStudent, "sam")

	for i, content := range []string{"day one", "day two", "day three"} {
		require.NoError(t, db.Create(&model.LogbookEntry{
			StudentID: student.ID,
			Content:   content,
			CreatedAt: baseTime.Add(time.Duration(i) * time.Hour),
		}).Error)
	}

	entries, err := svc.ListByStudent(context.Background(), student.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "day three", entries[0].Content)
	assert.Equal(t, "day one", entries[2].Content)
}
