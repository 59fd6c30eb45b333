package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/database/dbtest"
	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services/blobstore"
	"github.com/sahilchouksey/intern-track/services/upload"
	"github.com/sahilchouksey/intern-track/utils/cache"
)

func createUser(t *testing.T, db *gorm.DB, role model.Role, name string, opts ...func(*model.User)) *model.User {
	t.Helper()
	u := &model.User{
		Email:        name + "@example.com",
		PasswordHash: "x",
		Name:         name,
		Role:         role,
	}
	if role == model.RoleCompany {
		u.CompanyName = name + " Inc"
	}
	for _, o := range opts {
		o(u)
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func inCollege(college *model.User) func(*model.User) {
	return func(u *model.User) {
		u.CollegeID = &college.ID
		u.CollegeName = college.Name
	}
}

func withFaculty(faculty *model.User) func(*model.User) {
	return func(u *model.User) { u.FacultyID = &faculty.ID }
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func newCache(t *testing.T) *cache.MemoryCache {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { _ = c.Close() })
	return c
}

type uploadFixture struct {
	db      *gorm.DB
	store   *blobstore.MemoryStore
	tracker *ProgressTracker
	uploads *UploadService
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()
	db := dbtest.Open(t)
	store := blobstore.NewMemoryStore("https://blobs.test")
	tracker := NewProgressTracker(newCache(t))
	pipeline := upload.NewPipeline(upload.Config{
		Chain:    upload.NewDefaultChain(nil, nil, upload.OSFileSystem{}),
		Store:    store,
		MaxBytes: 25 << 20,
	})
	return &uploadFixture{
		db:      db,
		store:   store,
		tracker: tracker,
		uploads: NewUploadService(pipeline, tracker, nil, upload.NewRecorder(db), nil),
	}
}

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
