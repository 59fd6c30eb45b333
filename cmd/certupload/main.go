// Command certupload signs in as a student and pushes a local certificate
// through the same pipeline the API uses, printing every progress event.
//
//	go run ./cmd/certupload -email student@demo.test -password secret ./offer-letter.pdf
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/app"
	"github.com/sahilchouksey/intern-track/config"
	"github.com/sahilchouksey/intern-track/database"
	"github.com/sahilchouksey/intern-track/model"
	"github.com/sahilchouksey/intern-track/services"
	"github.com/sahilchouksey/intern-track/services/session"
	"github.com/sahilchouksey/intern-track/services/upload"
	"github.com/sahilchouksey/intern-track/utils"
	"github.com/sahilchouksey/intern-track/utils/cache"
)

var allowedTypes = []string{"application/pdf", "image/*"}

func main() {
	email := flag.String("email", "", "student account email")
	password := flag.String("password", "", "student account password")
	flag.Parse()

	if err := run(*email, *password, flag.Arg(0)); err != nil {
		if errors.Is(err, upload.ErrPickCancelled) {
			fmt.Fprintln(os.Stderr, "usage: certupload -email EMAIL -password PASSWORD FILE")
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "upload failed:", err)
		os.Exit(1)
	}
}

func run(email, password, path string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	picked, err := upload.Picker{}.Pick(ctx, path, allowedTypes)
	if err != nil {
		return err
	}

	if err := config.LoadENV(); err != nil {
		return err
	}
	env, err := config.Get()
	if err != nil {
		return err
	}
	if env.DO_SPACES_BUCKET == "" {
		return errors.New("DO_SPACES_BUCKET is not set; an in-memory upload would be lost on exit")
	}

	logger, closeLog, err := utils.NewLogger(utils.LoggerConfig{Level: env.LOG_LEVEL})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	store, err := database.StartGORM(env, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	db := store.DB()

	// Job state and the upload lock only need to live as long as this process
	cacheStore := cache.NewMemoryCache()
	defer cacheStore.Close()

	blobs, _, err := app.NewBlobStore(env, logger)
	if err != nil {
		return err
	}
	uploads, err := app.NewUploadService(env, db, blobs, cacheStore, upload.NewMemoryGuard(), logger)
	if err != nil {
		return err
	}

	auth := session.NewContext(app.NewAuthService(env, db, cacheStore, logger))
	unsubscribe := auth.OnAuthStateChange(func(s session.State) {
		if s.SignedIn() {
			logger.Info("signed in", zap.String("email", s.User.Email), zap.String("role", string(s.Role)))
		}
	})
	defer unsubscribe()

	if err := auth.SignIn(ctx, email, password); err != nil {
		return err
	}
	defer func() { _ = auth.SignOut(context.Background()) }()

	student := auth.Current().User
	if student.Role != model.RoleStudent {
		return fmt.Errorf("%s is a %s account, only students upload certificates", student.Email, student.Role)
	}

	res, err := uploads.UploadCertificate(ctx, student, services.NewJobID(), picked.URI, picked.Name, func(ev *services.ProgressEvent) {
		fmt.Printf("%-8s %3d%%  %s\n", ev.Type, ev.Progress, ev.Message)
	})
	if err != nil {
		return err
	}

	if res.Warning != nil {
		fmt.Printf("stored at %s but the certificate record was not saved: %v\n", res.File.URL, res.Warning)
		return nil
	}
	fmt.Printf("certificate %d uploaded: %s\n", res.RecordID, res.File.URL)
	return nil
}
