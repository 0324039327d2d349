package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/curator-cms/curator/internal/behavior"
	internal_errors "github.com/curator-cms/curator/internal/errors"
	"github.com/curator-cms/curator/internal/utils"
)

func (h *Handler) RelationPlan(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	field := chi.URLParam(r, "field")

	mode := behavior.ModeView
	switch r.URL.Query().Get("mode") {
	case "", "view":
	case "manage":
		mode = behavior.ModeManage
	default:
		utils.WriteErrorAndStatusCode(w, &internal_errors.ErrorWithStatusCode{Message: "Invalid mode", StatusCode: http.StatusBadRequest})
		return
	}

	plan, err := h.engine.Plan(owner, field, mode)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, plan)
}

func (h *Handler) RelationRefresh(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	field := chi.URLParam(r, "field")

	type bodyJson struct {
		Payload map[string]string `json:"payload"`
	}
	var body bodyJson
	if r.ContentLength > 0 {
		if err := utils.DecodeValidate(r.Body, &body); err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
	}

	payload, err := h.engine.Refresh(owner, field, body.Payload)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, map[string]any{"payload": payload})
}
