package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/curator-cms/curator/internal/behavior"
	"github.com/curator-cms/curator/internal/config"
	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
	"github.com/curator-cms/curator/internal/logger"
	"github.com/curator-cms/curator/internal/service"
)

type Handler struct {
	auth        service.AuthService
	attachments service.AttachmentService
	engine      *behavior.Engine
	cfg         *config.Config
}

func New(auth service.AuthService, attachments service.AttachmentService, engine *behavior.Engine, cfg *config.Config) *Handler {
	return &Handler{auth, attachments, engine, cfg}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

func parseIntParam(value, name string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &internal_errors.ErrorWithStatusCode{Message: "Invalid " + name, StatusCode: http.StatusBadRequest}
	}
	return n, nil
}

// ownerFromRequest resolves the {kind}/{id} route params into an OwnerRef.
func ownerFromRequest(r *http.Request) (domain.OwnerRef, error) {
	kind := chi.URLParam(r, "kind")
	id, err := parseIntParam(chi.URLParam(r, "id"), "owner id")
	if err != nil {
		return domain.OwnerRef{}, err
	}
	return domain.OwnerRef{Kind: kind, Id: id}, nil
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}
