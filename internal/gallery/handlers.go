// Package gallery orchestrates rendering generation and the gallery
// endpoints on top of the store, the artifact store and the generator.
package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"architect3d/internal/artifacts"
	"architect3d/internal/auth"
	"architect3d/internal/catalog"
	"architect3d/internal/events"
	"architect3d/internal/mail"
	"architect3d/internal/prompt"
	"architect3d/internal/storage"
	"architect3d/internal/vision"
)

const (
	maxPlanBytes = 10 * 1024 * 1024 // 10 MB
	slideshowMin = 2
)

// Handler bundles dependencies for gallery endpoints.
type Handler struct {
	Store     storage.Store
	Artifacts artifacts.Store
	Generator vision.Generator
	Mailer    mail.Mailer
	Broker    *events.Broker
	Sessions  auth.SessionManager

	// ExportLikedOnly restricts download/email/zip exports to liked renderings.
	ExportLikedOnly bool
}

// GenerateRequest describes inbound payload for the exterior pair.
type GenerateRequest struct {
	Description string `json:"description"`
}

// RoomRequest describes inbound payload for a single room rendering.
type RoomRequest struct {
	Subcategory string            `json:"subcategory"`
	Selections  map[string]string `json:"selections"`
	Description string            `json:"description"`
}

type planUpload struct {
	data        []byte
	filename    string
	contentType string
}

// Generate handles POST /api/generate. It renders the front and back
// exterior as a pair from the description and an optional plan upload. Both
// sides are attempted; a one-sided failure keeps the rendering that
// succeeded and reports the failure explicitly.
func (h Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var (
		req  GenerateRequest
		plan *planUpload
		err  error
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		req, plan, err = parseGenerateMultipart(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	req.Description = strings.TrimSpace(req.Description)

	planRef := ""
	if plan != nil {
		ref, err := h.Artifacts.Save(r.Context(), artifacts.DirUploads, plan.data, plan.contentType)
		if err != nil {
			if errors.Is(err, artifacts.ErrStoreDisabled) {
				http.Error(w, "artifact storage not configured", http.StatusServiceUnavailable)
				return
			}
			log.Printf("plan upload failed: %v", err)
			http.Error(w, "could not store plan", http.StatusInternalServerError)
			return
		}
		planRef = ref
	}

	session, _ := auth.SessionFromContext(r.Context())

	created := []storage.Rendering{}
	var failures []string
	for _, side := range catalog.Exteriors() {
		text := prompt.Build(side, nil, req.Description, plan != nil)
		rendering, err := h.renderAndPersist(r.Context(), session, side, nil, text)
		if err != nil {
			// Missing configuration fails the whole pair distinctly; it
			// cannot heal between sides the way a runtime failure can.
			if errors.Is(err, vision.ErrNotConfigured) || errors.Is(err, artifacts.ErrStoreDisabled) {
				h.recordGuestRenderings(w, session, created)
				h.writeGenerateError(w, err)
				return
			}
			log.Printf("generate %s: %v", side, err)
			failures = append(failures, fmt.Sprintf("%s: generation failed", side))
			continue
		}
		created = append(created, rendering)
	}

	h.recordGuestRenderings(w, session, created)
	for _, rendering := range created {
		h.publish(events.Event{
			Kind:        events.KindCreated,
			RenderingID: rendering.ID,
			Subcategory: rendering.Subcategory,
			OwnerID:     rendering.OwnerID,
		})
	}

	payload := map[string]any{
		"renderings": h.withURLs(created),
		"rooms":      catalog.Rooms(req.Description),
	}
	if planRef != "" {
		payload["plan_ref"] = planRef
	}
	status := http.StatusCreated
	if len(failures) > 0 {
		payload["errors"] = failures
		status = http.StatusBadGateway
	}
	writeJSON(w, status, payload)
}

// GenerateRoom handles POST /api/generate/room.
func (h Handler) GenerateRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Subcategory = strings.TrimSpace(req.Subcategory)
	req.Description = strings.TrimSpace(req.Description)

	category, err := catalog.CategoryOf(req.Subcategory)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if category != catalog.CategoryRoom {
		http.Error(w, "subcategory is not a room", http.StatusBadRequest)
		return
	}
	if err := catalog.ValidateSelections(req.Subcategory, req.Selections); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, _ := auth.SessionFromContext(r.Context())

	selections := prompt.OrderedSelections(req.Subcategory, req.Selections)
	text := prompt.Build(req.Subcategory, selections, req.Description, false)
	rendering, err := h.renderAndPersist(r.Context(), session, req.Subcategory, req.Selections, text)
	if err != nil {
		log.Printf("generate %s: %v", req.Subcategory, err)
		h.writeGenerateError(w, err)
		return
	}

	h.recordGuestRenderings(w, session, []storage.Rendering{rendering})
	h.publish(events.Event{
		Kind:        events.KindCreated,
		RenderingID: rendering.ID,
		Subcategory: rendering.Subcategory,
		OwnerID:     rendering.OwnerID,
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"rendering": h.withURL(rendering),
	})
}

// List handles GET /api/gallery.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	scope := session.Scope()

	renderings, err := h.Store.ListRenderings(r.Context(), scope)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	favorited, err := h.Store.CountFavorited(r.Context(), scope)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"renderings":          h.withURLs(renderings),
		"favorited_count":     favorited,
		"slideshow_available": favorited >= slideshowMin,
	})
}

// Rooms handles GET /api/rooms. Basement rooms only appear when the
// description mentions a basement.
func (h Handler) Rooms(w http.ResponseWriter, r *http.Request) {
	description := r.URL.Query().Get("description")
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms":        catalog.Rooms(description),
		"has_basement": catalog.HasBasement(description),
	})
}

// Options handles GET /api/options?subcategory=... so clients can render
// the choice pickers without hardcoding the catalog.
func (h Handler) Options(w http.ResponseWriter, r *http.Request) {
	subcategory := r.URL.Query().Get("subcategory")
	if !catalog.Known(subcategory) {
		http.Error(w, fmt.Sprintf("unknown subcategory %q", subcategory), http.StatusNotFound)
		return
	}
	category, _ := catalog.CategoryOf(subcategory)
	writeJSON(w, http.StatusOK, map[string]any{
		"subcategory": subcategory,
		"category":    category,
		"options":     catalog.Options(subcategory),
	})
}

// Slideshow handles GET /api/slideshow. It needs at least two favorited
// renderings to be worth watching.
func (h Handler) Slideshow(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	scope := session.Scope()

	renderings, err := h.Store.ListRenderings(r.Context(), scope)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	favorites := renderings[:0:0]
	for _, rendering := range renderings {
		if rendering.Favorited {
			favorites = append(favorites, rendering)
		}
	}
	if len(favorites) < slideshowMin {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    fmt.Sprintf("slideshow needs at least %d favorited renderings", slideshowMin),
			"redirect": "/api/gallery",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"renderings": h.withURLs(favorites),
	})
}

// renderAndPersist runs one prompt through the generator, stores the image
// and inserts the rendering row. Nothing is written before the generator
// succeeds.
func (h Handler) renderAndPersist(ctx context.Context, session auth.Session, subcategory string, selections map[string]string, text string) (storage.Rendering, error) {
	category, err := catalog.CategoryOf(subcategory)
	if err != nil {
		return storage.Rendering{}, err
	}

	image, err := h.Generator.Generate(ctx, text)
	if err != nil {
		return storage.Rendering{}, err
	}

	ref, err := h.Artifacts.Save(ctx, artifacts.DirRenderings, image.Data, image.MIME)
	if err != nil {
		return storage.Rendering{}, fmt.Errorf("store image: %w", err)
	}

	if selections == nil {
		selections = map[string]string{}
	}

	ownerID := ""
	if session.LoggedIn {
		ownerID = session.User.ID
	}

	rendering, err := h.Store.CreateRendering(ctx, storage.Rendering{
		OwnerID:     ownerID,
		Category:    string(category),
		Subcategory: subcategory,
		Options:     selections,
		Prompt:      text,
		ImagePath:   ref,
	})
	if err != nil {
		// The row never landed; drop the orphaned image.
		if cleanupErr := h.Artifacts.Delete(ctx, ref); cleanupErr != nil {
			log.Printf("cleanup artifact %s: %v", ref, cleanupErr)
		}
		return storage.Rendering{}, err
	}
	return rendering, nil
}

// recordGuestRenderings extends a guest session's scope with freshly created
// rendering ids and rewrites the cookie. Logged-in sessions need nothing.
func (h Handler) recordGuestRenderings(w http.ResponseWriter, session auth.Session, created []storage.Rendering) {
	if session.LoggedIn || len(created) == 0 {
		return
	}
	ids := make([]string, len(created))
	for i, rendering := range created {
		ids[i] = rendering.ID
	}
	claims := h.Sessions.AppendGuest(session.Claims, ids...)
	if err := h.Sessions.Write(w, claims); err != nil {
		log.Printf("write guest session: %v", err)
	}
}

func (h Handler) writeGenerateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vision.ErrNotConfigured):
		http.Error(w, "image generation not configured", http.StatusServiceUnavailable)
	case errors.Is(err, artifacts.ErrStoreDisabled):
		http.Error(w, "artifact storage not configured", http.StatusServiceUnavailable)
	case errors.Is(err, catalog.ErrUnknownSubcategory):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "rendering failed", http.StatusBadGateway)
	}
}

func (h Handler) publish(evt events.Event) {
	if h.Broker != nil {
		h.Broker.Publish(evt)
	}
}

type renderingView struct {
	storage.Rendering
	URL string `json:"url"`
}

func (h Handler) withURL(rendering storage.Rendering) renderingView {
	return renderingView{Rendering: rendering, URL: h.Artifacts.URL(rendering.ImagePath)}
}

func (h Handler) withURLs(renderings []storage.Rendering) []renderingView {
	views := make([]renderingView, len(renderings))
	for i, rendering := range renderings {
		views[i] = h.withURL(rendering)
	}
	return views
}

func parseGenerateMultipart(r *http.Request) (GenerateRequest, *planUpload, error) {
	const maxFormMemory = maxPlanBytes + (1 << 20)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return GenerateRequest{}, nil, fmt.Errorf("invalid multipart payload: %w", err)
	}

	req := GenerateRequest{Description: strings.TrimSpace(r.FormValue("description"))}

	file, header, err := r.FormFile("plan")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil, nil
		}
		return req, nil, fmt.Errorf("could not read plan: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPlanBytes+1))
	if err != nil {
		return req, nil, fmt.Errorf("read plan: %w", err)
	}
	if len(data) > maxPlanBytes {
		return req, nil, fmt.Errorf("plan is too large (max %d MB)", maxPlanBytes/(1024*1024))
	}
	if len(data) == 0 {
		return req, nil, nil
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return req, &planUpload{
		data:        data,
		filename:    header.Filename,
		contentType: contentType,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
