package server

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"architect3d/internal/auth"
	"architect3d/internal/gallery"
)

// New constructs the HTTP server with routes and middleware. artifactFS is
// the static handler for disk-backed artifacts; nil when artifacts live in a
// bucket with their own URLs.
func New(port string, galleryHandler gallery.Handler, authHandler auth.Handler, sessions auth.Middleware, artifactFS http.Handler) *http.Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(sessions.Inject)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		r.Post("/generate", galleryHandler.Generate)
		r.Post("/generate/room", galleryHandler.GenerateRoom)
		r.Get("/gallery", galleryHandler.List)
		r.Post("/gallery/bulk", galleryHandler.Bulk)
		r.Get("/gallery/export.zip", galleryHandler.ExportZip)
		r.Get("/slideshow", galleryHandler.Slideshow)
		r.Get("/rooms", galleryHandler.Rooms)
		r.Get("/options", galleryHandler.Options)
		r.Get("/events", galleryHandler.StreamEvents)
	})

	if artifactFS != nil {
		router.Handle("/renderings/*", artifactFS)
		router.Handle("/uploads/*", artifactFS)
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Println("server ready on", srv.Addr)
	return srv
}
