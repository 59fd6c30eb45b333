package upload_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/database/dbtest"
	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services/blobstore"
	"github.com/sahilchouksey/intern-track/services/realtime"
	"github.com/sahilchouksey/intern-track/services/upload"
	"github.com/sahilchouksey/intern-track/utils/apperr"
	"github.com/sahilchouksey/intern-track/utils/pdfvalidation"
	"github.com/sahilchouksey/intern-track/utils/pdfvalidation/pdftest"
)

type fixture struct {
	db       *gorm.DB
	store    *blobstore.MemoryStore
	pipeline *upload.Pipeline
	recorder *upload.Recorder
	hub      *realtime.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	broker := realtime.NewMemoryBroker()
	require.NoError(t, realtime.RegisterCallbacks(db, broker, nil))
	hub := realtime.NewHub(db, broker, nil)
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(hub.Close)

	store := blobstore.NewMemoryStore("https://blobs.test")
	return &fixture{
		db:    db,
		store: store,
		pipeline: upload.NewPipeline(upload.Config{
			Chain:    upload.NewDefaultChain(nil, upload.NewLocalClient(), upload.OSFileSystem{}),
			Store:    store,
			MaxBytes: 25 << 20,
		}),
		recorder: upload.NewRecorder(db),
		hub:      hub,
	}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestUploadTranscriptEndToEnd(t *testing.T) {
	f := newFixture(t)
	const studentID = 42

	sub, err := realtime.Subscribe[model.Certificate](f.hub, model.CollectionCertificates, realtime.Query{
		Scope: func(db *gorm.DB) *gorm.DB { return db.Where("student_id = ?", studentID).Order("created_at desc") },
	})
	require.NoError(t, err)
	defer sub.Cancel()
	initial := <-sub.C
	require.Empty(t, initial)

	data := pdftest.BuildSize(2 << 20)
	path := writeFile(t, "transcript.pdf", data)
	limits := pdfvalidation.CertificateLimits

	var events []upload.Event
	res, err := f.pipeline.Run(context.Background(), upload.Request{
		URI:       path,
		FileName:  "transcript.pdf",
		Key:       blobstore.CertificateKey(studentID, "transcript.pdf"),
		PDFLimits: &limits,
	}, func(ev upload.Event) { events = append(events, ev) }, f.recorder.For(studentID))
	require.NoError(t, err)

	assert.Equal(t, upload.OutcomeCompleted, res.Outcome)
	assert.Equal(t, "https://blobs.test/certificates/42/transcript.pdf", res.File.URL)
	assert.Equal(t, "application/pdf", res.File.ContentType)
	assert.Equal(t, upload.StrategyDirectFetch, res.File.Strategy)
	assert.Equal(t, 1, res.File.PageCount)
	assert.NotZero(t, res.RecordID)

	require.NotEmpty(t, events)
	last := -1.0
	for _, ev := range events {
		assert.GreaterOrEqual(t, ev.Fraction, last)
		last = ev.Fraction
	}
	final := events[len(events)-1]
	assert.Equal(t, upload.EventSuccess, final.Kind)
	assert.Equal(t, 1.0, final.Fraction)
	assert.Equal(t, int64(len(data)), final.TotalBytes)

	stored, ct, ok := f.store.Get("certificates/42/transcript.pdf")
	require.True(t, ok)
	assert.Equal(t, data, stored)
	assert.Equal(t, "application/pdf", ct)

	select {
	case rows := <-sub.C:
		require.Len(t, rows, 1)
		assert.Equal(t, "transcript.pdf", rows[0].FileName)
		assert.Equal(t, model.ReviewStatusPending, rows[0].Status)
		assert.Equal(t, res.File.URL, rows[0].FileURL)
	case <-time.After(5 * time.Second):
		t.Fatal("subscription did not receive the new certificate")
	}
}

func TestUploadTransportRejection(t *testing.T) {
	f := newFixture(t)
	f.store.FailWith = errors.New("storage/unauthorized: user does not have permission")

	path := writeFile(t, "offer.png", []byte("\x89PNG\r\n\x1a\nrest"))
	recorded := false
	_, err := f.pipeline.Run(context.Background(), upload.Request{
		URI:      path,
		FileName: "offer.png",
		Key:      blobstore.CertificateKey(1, "offer.png"),
	}, nil, func(ctx context.Context, _ *upload.UploadedFile) (uint, error) {
		recorded = true
		return 0, nil
	})
	require.Error(t, err)

	var transport *apperr.UploadTransportError
	require.ErrorAs(t, err, &transport)
	assert.Contains(t, err.Error(), "storage/unauthorized")
	assert.False(t, recorded)

	var count int64
	require.NoError(t, f.db.Model(&model.Certificate{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUploadRecordFailureIsWarning(t *testing.T) {
	f := newFixture(t)
	path := writeFile(t, "offer.jpg", []byte("jpeg bytes"))

	res, err := f.pipeline.Run(context.Background(), upload.Request{
		URI:      path,
		FileName: "offer.jpg",
		Key:      blobstore.CertificateKey(1, "offer.jpg"),
	}, nil, func(ctx context.Context, _ *upload.UploadedFile) (uint, error) {
		return 0, &apperr.PersistenceError{Collection: model.CollectionCertificates, Err: errors.New("permission-denied")}
	})
	require.NoError(t, err)
	assert.Equal(t, upload.OutcomeCompletedWithWarning, res.Outcome)
	assert.Error(t, res.Warning)
	assert.Zero(t, res.RecordID)

	// the blob stays behind as an orphan
	_, _, ok := f.store.Get("certificates/1/offer.jpg")
	assert.True(t, ok)
}

func TestUploadUnreadableFile(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Run(context.Background(), upload.Request{
		URI:      "content://com.android.providers.media.documents/document/77",
		FileName: "scan.pdf",
		Key:      "certificates/1/scan.pdf",
	}, nil, f.recorder.For(1))

	var unreadable *apperr.UnreadableFileError
	require.ErrorAs(t, err, &unreadable)
	assert.Len(t, unreadable.Attempts, 3)
	assert.Equal(t, "scan.pdf", unreadable.FileName)
	assert.Contains(t, err.Error(), "scan.pdf")
	assert.NotContains(t, err.Error(), "content://")
	assert.NotContains(t, err.Error(), "document/77")

	objs, err := f.store.ListFiles(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestUploadRejectsInvalidPDF(t *testing.T) {
	f := newFixture(t)
	path := writeFile(t, "fake.pdf", []byte("this is not a pdf"))
	limits := pdfvalidation.CertificateLimits

	_, err := f.pipeline.Run(context.Background(), upload.Request{
		URI:       path,
		FileName:  "fake.pdf",
		Key:       "certificates/1/fake.pdf",
		PDFLimits: &limits,
	}, nil, f.recorder.For(1))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, _, ok := f.store.Get("certificates/1/fake.pdf")
	assert.False(t, ok)
}

func TestUploadSizeLimit(t *testing.T) {
	f := newFixture(t)
	small := upload.NewPipeline(upload.Config{
		Chain:    upload.NewDefaultChain(nil, upload.NewLocalClient(), upload.OSFileSystem{}),
		Store:    f.store,
		MaxBytes: 4,
	})
	path := writeFile(t, "big.png", []byte("0123456789"))

	_, err := small.Run(context.Background(), upload.Request{URI: path, FileName: "big.png", Key: "k"}, nil, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUploadRequiresKey(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline.Run(context.Background(), upload.Request{URI: "x", FileName: "x.pdf"}, nil, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
