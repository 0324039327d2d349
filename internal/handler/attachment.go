package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
	"github.com/curator-cms/curator/internal/middleware/metrics"
	"github.com/curator-cms/curator/internal/service"
	"github.com/curator-cms/curator/internal/utils"
	"github.com/curator-cms/curator/internal/validation"
)

// attachmentResponse decorates the row with its resolved public URL when one
// exists.
type attachmentResponse struct {
	*domain.Attachment
	PublicURL string `json:"public_url,omitempty"`
}

func (h *Handler) attachmentResponse(att *domain.Attachment) attachmentResponse {
	resp := attachmentResponse{Attachment: att}
	if !att.Protected {
		if url, err := h.attachments.PublicURL(att); err == nil {
			resp.PublicURL = url
		}
	}
	return resp
}

const multipartOverhead = 1 << 20 // form fields and boundaries

func createOptionsFromForm(r *http.Request) service.CreateOptions {
	opts := service.CreateOptions{
		Protected:  r.FormValue("protected") == "true",
		SessionKey: r.FormValue("session_key"),
	}
	if sortOrder, err := strconv.Atoi(r.FormValue("sort_order")); err == nil {
		opts.SortOrder = sortOrder
	}
	return opts
}

func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	field := chi.URLParam(r, "field")

	maxSize := h.cfg.Public.Attachments.MaxFileSizeBytes + multipartOverhead
	if err := validation.ValidateAndParseMultipart(r, w, maxSize); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) != 1 {
		utils.WriteErrorAndStatusCode(w, &internal_errors.ValidationError{Message: "exactly one file field is required"})
		return
	}

	opts := createOptionsFromForm(r)
	ownerRef := &owner
	if opts.SessionKey != "" {
		ownerRef = nil // deferred: bound at commit time
	}

	att, err := h.attachments.CreateFromUpload(ownerRef, field, files[0], opts)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	metrics.ObserveAttachmentWrite(att.SizeBytes)

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, h.attachmentResponse(att))
}

func (h *Handler) CreateAttachmentFromURL(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	field := chi.URLParam(r, "field")

	type bodyJson struct {
		URL        string `validate:"required,url" json:"url"`
		Rename     string `json:"rename"`
		Protected  bool   `json:"protected"`
		SortOrder  int    `json:"sort_order"`
		SessionKey string `json:"session_key"`
	}
	var body bodyJson
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	opts := service.CreateOptions{
		Protected:  body.Protected,
		SortOrder:  body.SortOrder,
		SessionKey: body.SessionKey,
	}
	ownerRef := &owner
	if opts.SessionKey != "" {
		ownerRef = nil
	}

	att, err := h.attachments.CreateFromURL(r.Context(), ownerRef, field, body.URL, body.Rename, opts)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	metrics.ObserveAttachmentWrite(att.SizeBytes)

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, h.attachmentResponse(att))
}

func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	atts, err := h.attachments.List(owner, chi.URLParam(r, "field"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp := make([]attachmentResponse, 0, len(atts))
	for _, att := range atts {
		resp = append(resp, h.attachmentResponse(att))
	}
	writeJSON(w, resp)
}

func (h *Handler) attachmentFromRequest(r *http.Request) (*domain.Attachment, error) {
	id, err := parseIntParam(chi.URLParam(r, "attachment"), "attachment id")
	if err != nil {
		return nil, err
	}
	return h.attachments.Get(id)
}

func (h *Handler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	att, err := h.attachmentFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, h.attachmentResponse(att))
}

func (h *Handler) StreamAttachment(w http.ResponseWriter, r *http.Request) {
	att, err := h.attachmentFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	content, err := h.attachments.Stream(att)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", att.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(att.SizeBytes, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", att.OriginalFilename))
	io.Copy(w, content)
}

func (h *Handler) AttachmentVariant(w http.ResponseWriter, r *http.Request) {
	att, err := h.attachmentFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	width, _ := strconv.Atoi(r.URL.Query().Get("w"))
	height, _ := strconv.Atoi(r.URL.Query().Get("h"))

	variantPath, err := h.attachments.Variant(att, width, height)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	variant := *att
	variant.DiskPath = variantPath
	content, err := h.attachments.Stream(&variant)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", att.MimeType)
	io.Copy(w, content)
}

func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(chi.URLParam(r, "attachment"), "attachment id")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.attachments.Delete(id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	h.bindAttachment(w, r, true)
}

func (h *Handler) RemoveAttachment(w http.ResponseWriter, r *http.Request) {
	h.bindAttachment(w, r, false)
}

func (h *Handler) bindAttachment(w http.ResponseWriter, r *http.Request, bind bool) {
	owner, err := ownerFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	field := chi.URLParam(r, "field")
	id, err := parseIntParam(chi.URLParam(r, "attachment"), "attachment id")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	// A session key defers the mutation until the session is committed.
	if session := r.URL.Query().Get("session_key"); session != "" {
		if bind {
			err = h.attachments.DeferAdd(session, field, id)
		} else {
			err = h.attachments.DeferRemove(session, field, id)
		}
	} else if bind {
		err = h.attachments.Add(owner, field, id)
	} else {
		err = h.attachments.Remove(owner, field, id)
	}
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) CommitBindings(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")

	type bodyJson struct {
		OwnerKind string `validate:"required" json:"owner_kind"`
		OwnerId   int64  `validate:"required" json:"owner_id"`
	}
	var body bodyJson
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	owner := domain.OwnerRef{Kind: body.OwnerKind, Id: body.OwnerId}
	if err := h.attachments.CommitDeferred(session, owner); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) DiscardBindings(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	if err := h.attachments.DiscardDeferred(session); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
