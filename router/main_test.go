package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/intern-track/api"
	"github.com/sahilchouksey/intern-track/database"
	"github.com/sahilchouksey/intern-track/database/dbtest"
	"github.com/sahilchouksey/intern-track/services"
	"github.com/sahilchouksey/intern-track/services/blobstore"
	"github.com/sahilchouksey/intern-track/services/realtime"
	"github.com/sahilchouksey/intern-track/services/session"
	"github.com/sahilchouksey/intern-track/services/upload"
	"github.com/sahilchouksey/intern-track/utils/auth"
	"github.com/sahilchouksey/intern-track/utils/cache"
	"github.com/sahilchouksey/intern-track/utils/pdfvalidation/pdftest"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestApp(t *testing.T) (*fiber.App, *blobstore.MemoryStore) {
	t.Helper()
	db := dbtest.Open(t)
	cacheStore := cache.NewMemoryCache()
	t.Cleanup(func() { _ = cacheStore.Close() })
	blobs := blobstore.NewMemoryStore("http://localhost/blobs")

	jwt := auth.NewJWTManager(auth.JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})
	sessions := session.NewAuthService(db, jwt, auth.NewBlacklistService(db, cacheStore), nil)

	pipeline := upload.NewPipeline(upload.Config{
		Chain:    upload.NewDefaultChain(nil, nil, upload.OSFileSystem{}),
		Store:    blobs,
		MaxBytes: 25 << 20,
	})
	uploads := services.NewUploadService(pipeline, services.NewProgressTracker(cacheStore), nil, upload.NewRecorder(db), nil)
	internships := services.NewInternshipService(db)

	hub := realtime.NewHub(db, realtime.NewMemoryBroker(), nil)
	t.Cleanup(hub.Close)

	app := api.NewAPIServer(":0", 30<<20, nil).GetEngine()
	SetupRoutes(app, &Deps{
		Store:        database.NewGORMStore(db, nil),
		Cache:        cacheStore,
		Hub:          hub,
		MemoryBlobs:  blobs,
		Sessions:     sessions,
		Profiles:     services.NewProfileService(db, uploads),
		Internships:  internships,
		Applications: services.NewApplicationService(db, internships),
		Logbooks:     services.NewLogbookService(db),
		Certificates: services.NewCertificateService(db),
		Uploads:      uploads,
		Plans:        services.NewPlanService(db, uploads),
		Courses:      services.NewCourseService(db),
		Ratings:      services.NewRatingService(db),
		Dashboards:   services.NewDashboardService(db, cacheStore, nil),
	})
	return app, blobs
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(body) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(body, &env), string(body))
	}
	return resp.StatusCode, env
}

func jsonRequest(method, path, token string, body interface{}) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

func fileRequest(t *testing.T, path, token, field, name string, data []byte) *http.Request {
	t.Helper()
	return fileRequestWithFields(t, path, token, field, name, data, nil)
}

func fileRequestWithFields(t *testing.T, path, token, field, name string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return req
}

type registered struct {
	ID    uint
	Token string
}

func register(t *testing.T, app *fiber.App, body map[string]interface{}) registered {
	t.Helper()
	status, env := do(t, app, jsonRequest(http.MethodPost, "/api/v1/auth/register", "", body))
	require.Equal(t, http.StatusCreated, status, "%+v", env.Error)

	var out struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return registered{ID: out.User.ID, Token: out.AccessToken}
}

func registerStudent(t *testing.T, app *fiber.App) registered {
	t.Helper()
	college := register(t, app, map[string]interface{}{
		"email": "college@demo.test", "password": "secret1", "name": "State College",
		"role": "college", "college_name": "State College",
	})
	return register(t, app, map[string]interface{}{
		"email": "asha@demo.test", "password": "secret1", "name": "Asha Rao",
		"role": "student", "college_id": college.ID,
	})
}

func TestPing(t *testing.T) {
	app, _ := newTestApp(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	app, _ := newTestApp(t)

	status, env := do(t, app, jsonRequest(http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email": "not-an-email", "password": "123", "name": "A", "role": "student",
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	// Students must name an existing college
	status, env = do(t, app, jsonRequest(http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"email": "s@demo.test", "password": "secret1", "name": "Student", "role": "student", "college_id": 999,
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestDuplicateEmail(t *testing.T) {
	app, _ := newTestApp(t)
	body := map[string]interface{}{
		"email": "hr@acme.test", "password": "secret1", "name": "Acme HR", "role": "company", "company_name": "Acme",
	}
	register(t, app, body)

	status, env := do(t, app, jsonRequest(http.MethodPost, "/api/v1/auth/register", "", body))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "EMAIL_IN_USE", env.Error.Code)
}

func TestProtectedRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	status, env := do(t, app, jsonRequest(http.MethodGet, "/api/v1/profile", "", nil))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	student := registerStudent(t, app)

	status, _ = do(t, app, jsonRequest(http.MethodGet, "/api/v1/profile", student.Token, nil))
	assert.Equal(t, http.StatusOK, status)

	// Posting internships is for companies only
	status, env = do(t, app, jsonRequest(http.MethodPost, "/api/v1/internships", student.Token, map[string]interface{}{
		"title": "Backend intern",
	}))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	app, _ := newTestApp(t)
	student := registerStudent(t, app)

	status, _ := do(t, app, jsonRequest(http.MethodPost, "/api/v1/auth/logout", student.Token, nil))
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, jsonRequest(http.MethodGet, "/api/v1/profile", student.Token, nil))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCertificateUpload(t *testing.T) {
	app, blobs := newTestApp(t)
	student := registerStudent(t, app)
	pdf := pdftest.Build(1, 0)

	status, env := do(t, app, fileRequest(t, "/api/v1/certificates", student.Token, "file", "offer-letter.pdf", pdf))
	require.Equal(t, http.StatusCreated, status, "%+v", env.Error)

	var out struct {
		JobID         string `json:"job_id"`
		CertificateID uint   `json:"certificate_id"`
		FileURL       string `json:"file_url"`
		Outcome       string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.NotEmpty(t, out.JobID)
	assert.NotZero(t, out.CertificateID)
	assert.Equal(t, "completed", out.Outcome)

	key := strings.TrimPrefix(out.FileURL, "http://localhost/blobs/")
	assert.True(t, strings.HasPrefix(key, fmt.Sprintf("certificates/%d/", student.ID)), key)
	stored, contentType, ok := blobs.Get(key)
	require.True(t, ok)
	assert.Equal(t, pdf, stored)
	assert.Equal(t, "application/pdf", contentType)

	status, env = do(t, app, jsonRequest(http.MethodGet, "/api/v1/certificates", student.Token, nil))
	require.Equal(t, http.StatusOK, status)
	var list []struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, out.CertificateID, list[0].ID)
	assert.Equal(t, "pending", list[0].Status)

	status, _ = do(t, app, jsonRequest(http.MethodGet, "/api/v1/uploads/"+out.JobID, student.Token, nil))
	assert.Equal(t, http.StatusOK, status)
}

func TestCertificateUploadRejectsType(t *testing.T) {
	app, _ := newTestApp(t)
	student := registerStudent(t, app)

	status, env := do(t, app, fileRequest(t, "/api/v1/certificates", student.Token, "file", "notes.txt",
		[]byte("plain text is not a certificate")))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestCertificateUploadJobID(t *testing.T) {
	app, _ := newTestApp(t)
	student := registerStudent(t, app)
	pdf := pdftest.Build(1, 0)

	status, env := do(t, app, fileRequestWithFields(t, "/api/v1/certificates", student.Token, "file", "offer-letter.pdf", pdf,
		map[string]string{"job_id": "upload:active:1"}))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	jobID := uuid.NewString()
	status, env = do(t, app, fileRequestWithFields(t, "/api/v1/certificates", student.Token, "file", "offer-letter.pdf", pdf,
		map[string]string{"job_id": jobID}))
	require.Equal(t, http.StatusCreated, status, "%+v", env.Error)

	// A finished job ID cannot be taken over by a new upload
	status, env = do(t, app, fileRequestWithFields(t, "/api/v1/certificates", student.Token, "file", "offer-letter.pdf", pdf,
		map[string]string{"job_id": jobID}))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)
}
