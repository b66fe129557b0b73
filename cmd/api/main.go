package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"architect3d/internal/artifacts"
	"architect3d/internal/auth"
	"architect3d/internal/config"
	"architect3d/internal/events"
	"architect3d/internal/gallery"
	"architect3d/internal/mail"
	"architect3d/internal/server"
	"architect3d/internal/storage"
	"architect3d/internal/vision"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.FromEnv()

	if cfg.Session.Secret == "" {
		log.Fatal("SESSION_SECRET is required")
	}

	ctx := context.Background()
	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	defer store.Close()
	if cfg.DatabaseURL == "" {
		log.Println("store: using in-memory storage (DATABASE_URL missing)")
	}

	var artifactStore artifacts.Store
	var artifactFS http.Handler
	if cfg.Artifacts.Bucket != "" && cfg.Artifacts.Region != "" {
		artifactStore, err = artifacts.NewS3Store(ctx, artifacts.S3Config{
			Bucket:         cfg.Artifacts.Bucket,
			Region:         cfg.Artifacts.Region,
			Endpoint:       cfg.Artifacts.Endpoint,
			PublicURL:      cfg.Artifacts.PublicURL,
			KeyPrefix:      cfg.Artifacts.KeyPrefix,
			ForcePathStyle: cfg.Artifacts.ForcePathStyle,
		})
		if err != nil {
			log.Fatalf("failed to init S3 artifact store: %v", err)
		}
		log.Println("artifacts: using S3 bucket", cfg.Artifacts.Bucket)
	} else {
		diskStore, err := artifacts.NewDiskStore(cfg.Artifacts.Dir)
		if err != nil {
			log.Fatalf("failed to init disk artifact store: %v", err)
		}
		artifactStore = diskStore
		artifactFS = http.FileServer(http.Dir(diskStore.BaseDir))
		log.Println("artifacts: using local directory", diskStore.BaseDir)
	}

	var generator vision.Generator
	switch cfg.Vision.Provider {
	case "imagen":
		generator = vision.NewVertexImagen(vision.VertexImagenConfig{
			ProjectID:          cfg.Vision.ImagenProject,
			Location:           cfg.Vision.ImagenLocation,
			Model:              cfg.Vision.ImagenModel,
			APIKey:             cfg.Vision.ImagenAPIKey,
			ServiceAccount:     cfg.Vision.ImagenServiceAccount,
			ServiceAccountJSON: cfg.Vision.ImagenServiceAccountJSON,
			Timeout:            cfg.Vision.Timeout,
		})
		log.Println("generator ready: Vertex Imagen")
	default:
		if cfg.Vision.GeminiAPIKey == "" {
			generator = vision.Disabled()
			log.Println("generator disabled: GEMINI_API_KEY missing")
		} else {
			generator = vision.NewGeminiGenerator(cfg.Vision.GeminiAPIKey, cfg.Vision.GeminiModel, cfg.Vision.Timeout)
			log.Println("generator ready: Gemini")
		}
	}

	mailer := mail.NewSendGridMailer(cfg.Mail.SendGridAPIKey, cfg.Mail.SenderName, cfg.Mail.SenderAddress)
	if cfg.Mail.SendGridAPIKey == "" || cfg.Mail.SenderAddress == "" {
		log.Println("mail disabled: SENDGRID_API_KEY or MAIL_SENDER_ADDRESS missing")
	}

	sessions := auth.SessionManager{
		Secret:       []byte(cfg.Session.Secret),
		Duration:     cfg.Session.Duration,
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.Secure,
		GuestLimit:   cfg.Session.GuestLimit,
	}

	broker := events.NewBroker()

	galleryHandler := gallery.Handler{
		Store:           store,
		Artifacts:       artifactStore,
		Generator:       generator,
		Mailer:          mailer,
		Broker:          broker,
		Sessions:        sessions,
		ExportLikedOnly: cfg.ExportLikedOnly,
	}
	authHandler := auth.Handler{Store: store, Sessions: sessions}
	sessionMW := auth.Middleware{Store: store, Sessions: sessions}

	srv := server.New(cfg.Port, galleryHandler, authHandler, sessionMW, artifactFS)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		log.Println("shutting down server...")
		if err := srv.Close(); err != nil {
			log.Printf("server close error: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}
