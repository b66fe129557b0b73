package gallery

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"

	"architect3d/internal/auth"
	"architect3d/internal/events"
	"architect3d/internal/mail"
	"architect3d/internal/storage"
)

// Bulk actions accepted by the gallery.
const (
	ActionLike       = "like"
	ActionUnlike     = "unlike"
	ActionFavorite   = "favorite"
	ActionUnfavorite = "unfavorite"
	ActionDelete     = "delete"
	ActionDownload   = "download"
	ActionEmail      = "email"
)

var errNoneEligible = errors.New("no eligible renderings in selection")

// BulkRequest describes a bulk action over selected renderings.
type BulkRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
	Email  string   `json:"email,omitempty"`
}

// Bulk handles POST /api/gallery/bulk. Ids outside the caller's scope are
// silently ignored; the reported count tells the caller how much happened.
func (h Handler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		http.Error(w, "no renderings selected", http.StatusBadRequest)
		return
	}

	session, _ := auth.SessionFromContext(r.Context())
	scope := session.Scope()

	switch req.Action {
	case ActionLike, ActionUnlike:
		h.bulkFlag(w, r, scope, req.IDs, storage.FlagLiked, req.Action == ActionLike)
	case ActionFavorite, ActionUnfavorite:
		h.bulkFlag(w, r, scope, req.IDs, storage.FlagFavorited, req.Action == ActionFavorite)
	case ActionDelete:
		h.bulkDelete(w, r, session, req.IDs)
	case ActionDownload:
		h.bulkDownload(w, r, scope, req.IDs)
	case ActionEmail:
		h.bulkEmail(w, r, scope, req.IDs, req.Email)
	default:
		http.Error(w, fmt.Sprintf("unknown action %q", req.Action), http.StatusBadRequest)
	}
}

func (h Handler) bulkFlag(w http.ResponseWriter, r *http.Request, scope storage.Scope, ids []string, field string, value bool) {
	count, err := h.Store.SetFlag(r.Context(), scope, ids, field, value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// Events only for rows the store actually touched; out-of-scope ids in
	// the request must stay invisible.
	if updated, err := h.Store.ListByIDs(r.Context(), scope, ids); err == nil {
		for _, rendering := range updated {
			h.publish(events.Event{
				Kind:        events.KindFlagged,
				RenderingID: rendering.ID,
				Subcategory: rendering.Subcategory,
				OwnerID:     rendering.OwnerID,
			})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"action":  field,
		"value":   value,
		"updated": count,
	})
}

func (h Handler) bulkDelete(w http.ResponseWriter, r *http.Request, session auth.Session, ids []string) {
	deleted, err := h.Store.DeleteRenderings(r.Context(), session.Scope(), ids)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	deletedIDs := make(map[string]bool, len(deleted))
	for _, rendering := range deleted {
		deletedIDs[rendering.ID] = true
		// Artifact removal is best effort; the row is already gone.
		if err := h.Artifacts.Delete(r.Context(), rendering.ImagePath); err != nil {
			log.Printf("delete artifact %s: %v", rendering.ImagePath, err)
		}
		h.publish(events.Event{
			Kind:        events.KindDeleted,
			RenderingID: rendering.ID,
			Subcategory: rendering.Subcategory,
			OwnerID:     rendering.OwnerID,
		})
	}

	if !session.LoggedIn && len(deletedIDs) > 0 {
		claims := session.Claims
		kept := claims.GuestIDs[:0:0]
		for _, id := range claims.GuestIDs {
			if !deletedIDs[id] {
				kept = append(kept, id)
			}
		}
		claims.GuestIDs = kept
		if err := h.Sessions.Write(w, claims); err != nil {
			log.Printf("write guest session: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"action":  ActionDelete,
		"deleted": len(deleted),
	})
}

func (h Handler) bulkDownload(w http.ResponseWriter, r *http.Request, scope storage.Scope, ids []string) {
	eligible, err := h.eligibleForExport(r, scope, ids)
	if err != nil {
		h.writeExportError(w, err)
		return
	}

	urls := make([]map[string]string, len(eligible))
	for i, rendering := range eligible {
		urls[i] = map[string]string{
			"id":       rendering.ID,
			"filename": exportFilename(rendering),
			"url":      h.Artifacts.URL(rendering.ImagePath),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"action":    ActionDownload,
		"downloads": urls,
		"zip_url":   "/api/gallery/export.zip?ids=" + strings.Join(idsOf(eligible), ","),
	})
}

func (h Handler) bulkEmail(w http.ResponseWriter, r *http.Request, scope storage.Scope, ids []string, recipient string) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		http.Error(w, "recipient email is required", http.StatusBadRequest)
		return
	}

	eligible, err := h.eligibleForExport(r, scope, ids)
	if err != nil {
		h.writeExportError(w, err)
		return
	}

	attachments := make([]mail.Attachment, 0, len(eligible))
	for _, rendering := range eligible {
		body, err := h.Artifacts.Open(r.Context(), rendering.ImagePath)
		if err != nil {
			log.Printf("open artifact %s: %v", rendering.ImagePath, err)
			http.Error(w, "could not read renderings", http.StatusInternalServerError)
			return
		}
		data, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			http.Error(w, "could not read renderings", http.StatusInternalServerError)
			return
		}
		attachments = append(attachments, mail.Attachment{
			Filename:    exportFilename(rendering),
			ContentType: contentTypeOf(rendering.ImagePath),
			Data:        data,
		})
	}

	err = h.Mailer.Send(r.Context(), mail.Message{
		To:          recipient,
		Subject:     "Your home renderings",
		Body:        fmt.Sprintf("Attached are %d renderings from your gallery.", len(attachments)),
		Attachments: attachments,
	})
	if err != nil {
		if errors.Is(err, mail.ErrNotConfigured) {
			http.Error(w, "email delivery not configured", http.StatusServiceUnavailable)
			return
		}
		log.Printf("send export email: %v", err)
		http.Error(w, "could not send email", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"action": ActionEmail,
		"sent":   len(attachments),
		"to":     recipient,
	})
}

// ExportZip handles GET /api/gallery/export.zip. Without an ids parameter it
// packages every eligible rendering in the caller's scope.
func (h Handler) ExportZip(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	scope := session.Scope()

	var ids []string
	if raw := strings.TrimSpace(r.URL.Query().Get("ids")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	var eligible []storage.Rendering
	var err error
	if len(ids) > 0 {
		eligible, err = h.eligibleForExport(r, scope, ids)
	} else {
		eligible, err = h.allEligible(r, scope)
	}
	if err != nil {
		h.writeExportError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="renderings.zip"`)

	archive := zip.NewWriter(w)
	for _, rendering := range eligible {
		body, err := h.Artifacts.Open(r.Context(), rendering.ImagePath)
		if err != nil {
			log.Printf("zip artifact %s: %v", rendering.ImagePath, err)
			continue
		}
		entry, err := archive.Create(exportFilename(rendering))
		if err == nil {
			_, err = io.Copy(entry, body)
		}
		body.Close()
		if err != nil {
			log.Printf("zip entry %s: %v", rendering.ID, err)
			break
		}
	}
	if err := archive.Close(); err != nil {
		log.Printf("close zip: %v", err)
	}
}

// eligibleForExport resolves the scoped subset of ids and applies the
// liked-only export policy. An empty result is an error, not a no-op.
func (h Handler) eligibleForExport(r *http.Request, scope storage.Scope, ids []string) ([]storage.Rendering, error) {
	items, err := h.Store.ListByIDs(r.Context(), scope, ids)
	if err != nil {
		return nil, err
	}
	return h.applyExportPolicy(items)
}

func (h Handler) allEligible(r *http.Request, scope storage.Scope) ([]storage.Rendering, error) {
	items, err := h.Store.ListRenderings(r.Context(), scope)
	if err != nil {
		return nil, err
	}
	return h.applyExportPolicy(items)
}

func (h Handler) applyExportPolicy(items []storage.Rendering) ([]storage.Rendering, error) {
	if h.ExportLikedOnly {
		liked := items[:0:0]
		for _, rendering := range items {
			if rendering.Liked {
				liked = append(liked, rendering)
			}
		}
		items = liked
	}
	if len(items) == 0 {
		if h.ExportLikedOnly {
			return nil, fmt.Errorf("%w: like renderings before exporting them", errNoneEligible)
		}
		return nil, errNoneEligible
	}
	return items, nil
}

func (h Handler) writeExportError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNoneEligible) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func exportFilename(rendering storage.Rendering) string {
	slug := strings.ToLower(strings.ReplaceAll(rendering.Subcategory, " ", "-"))
	slug = strings.ReplaceAll(slug, ":", "")
	ext := path.Ext(rendering.ImagePath)
	if ext == "" {
		ext = ".png"
	}
	short := rendering.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return slug + "-" + short + ext
}

func contentTypeOf(ref string) string {
	switch path.Ext(ref) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

func idsOf(renderings []storage.Rendering) []string {
	ids := make([]string, len(renderings))
	for i, rendering := range renderings {
		ids[i] = rendering.ID
	}
	return ids
}
