package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/intern-track/database/dbtest"
	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/utils/apperr"
)

func TestCourseAddAndRecommend(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewCourseService(db)
	ctx := context.Background()

	college := createUser(t, db, model.RoleCollege, "state")
	student := createUser(t, db, model.RoleStudent, "sam", func(u *model.User) {
		u.Skills = model.StringList{"go", "sql"}
	})

	course, err := svc.Add(ctx, college, AddCourseRequest{Title: "Databases", SkillsCovered: []string{" sql ", "sql", "", "modeling"}})
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"sql", "modeling"}, course.SkillsCovered)

	_, err = svc.Add(ctx, student, AddCourseRequest{Title: "Hacking"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.Add(ctx, college, AddCourseRequest{Title: " "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	for i := 0; i < 7; i++ {
		_, err := svc.Add(ctx, college, AddCourseRequest{Title: fmt.Sprintf("Go %d", i), SkillsCovered: []string{"go"}})
		require.NoError(t, err)
	}

	var stored model.Course
	require.NoError(t, db.First(&stored, course.ID).Error)
	assert.Equal(t, model.StringList{"sql", "modeling"}, stored.SkillsCovered)

	goCourses, err := svc.Recommended(ctx, "go")
	require.NoError(t, err)
	assert.Len(t, goCourses, RecommendedCourseLimit)
	for _, c := range goCourses {
		assert.True(t, c.SkillsCovered.Contains("go"))
	}

	none, err := svc.Recommended(ctx, "cobol")
	require.NoError(t, err)
	assert.Empty(t, none)

	merged, err := svc.RecommendedFor(ctx, student)
	require.NoError(t, err)
	assert.Len(t, merged, RecommendedCourseLimit+1)

	listed, err := svc.List(ctx, college.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 8)
	assert.Equal(t, "Databases", listed[0].Title)
}
