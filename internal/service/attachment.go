package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
	"github.com/curator-cms/curator/internal/imaging"
	"github.com/curator-cms/curator/internal/logger"
	"github.com/curator-cms/curator/internal/registry"
)

type AttachmentService interface {
	CreateFromUpload(owner *domain.OwnerRef, field string, header *multipart.FileHeader, opts CreateOptions) (*domain.Attachment, error)
	CreateFromData(owner *domain.OwnerRef, field, filename string, data []byte, opts CreateOptions) (*domain.Attachment, error)
	CreateFromPath(owner *domain.OwnerRef, field, localPath string, opts CreateOptions) (*domain.Attachment, error)
	CreateFromURL(ctx context.Context, owner *domain.OwnerRef, field, rawURL, rename string, opts CreateOptions) (*domain.Attachment, error)

	Get(id domain.AttachmentId) (*domain.Attachment, error)
	List(owner domain.OwnerRef, field string) (domain.Attachments, error)
	PublicURL(att *domain.Attachment) (string, error)
	LocalPath(att *domain.Attachment) (string, error)
	Stream(att *domain.Attachment) (io.ReadCloser, error)
	Variant(att *domain.Attachment, width, height int) (string, error)

	Add(owner domain.OwnerRef, field string, id domain.AttachmentId) error
	Remove(owner domain.OwnerRef, field string, id domain.AttachmentId) error
	Delete(id domain.AttachmentId) error

	DeferAdd(sessionKey, field string, id domain.AttachmentId) error
	DeferRemove(sessionKey, field string, id domain.AttachmentId) error
	CommitDeferred(sessionKey string, owner domain.OwnerRef) error
	DiscardDeferred(sessionKey string) error
}

// CreateOptions carries per-create knobs. A non-empty SessionKey defers the
// owner binding: the attachment is stored unbound and linked to the owner
// only when the session is committed.
type CreateOptions struct {
	Protected  bool
	SortOrder  int
	SessionKey string
}

type AttachmentStorage interface {
	CreateAttachment(a *domain.Attachment) (domain.AttachmentId, error)
	GetAttachment(id domain.AttachmentId) (*domain.Attachment, error)
	DeleteAttachment(id domain.AttachmentId) error
	AttachOwner(id domain.AttachmentId, owner domain.OwnerRef, field string) error
	DetachOwner(id domain.AttachmentId, owner domain.OwnerRef, field string) error
	ListForOwner(owner domain.OwnerRef, field string) (domain.Attachments, error)
	CreateDeferredBinding(sessionKey, field string, attachmentId domain.AttachmentId, bind bool) error
	CommitDeferred(sessionKey string, owner domain.OwnerRef) error
	DiscardDeferred(sessionKey string) (domain.Attachments, error)
}

type MediaStorage interface {
	Save(data io.Reader, protected bool, relPath string) error
	Read(relPath string, protected bool) (io.ReadCloser, error)
	Delete(relPath string, protected bool) error
	DeleteVariants(relPath string, protected bool) error
	LocalPath(relPath string, protected bool) (string, error)
	PublicURL(relPath string, protected bool) (string, error)
	Exists(relPath string, protected bool) bool
}

type FileValidator interface {
	Validate(filename string, data io.Reader) (*domain.PendingFile, error)
}

type Attachment struct {
	storage      AttachmentStorage
	media        MediaStorage
	validator    FileValidator
	registry     *registry.Registry
	client       *http.Client
	variantMaxPx int
}

func NewAttachment(storage AttachmentStorage, media MediaStorage, validator FileValidator, reg *registry.Registry, client *http.Client, variantMaxPx int) AttachmentService {
	if client == nil {
		client = http.DefaultClient
	}
	return &Attachment{
		storage:      storage,
		media:        media,
		validator:    validator,
		registry:     reg,
		client:       client,
		variantMaxPx: variantMaxPx,
	}
}

// checkRelation verifies the field names a relation the owner model declares.
func (s *Attachment) checkRelation(owner *domain.OwnerRef, field string) error {
	if owner == nil {
		return nil // deferred create, the owner is known only at commit
	}
	_, err := s.registry.Relation(owner.Kind, field)
	return err
}

// diskPath builds a fan-out path like ab/cd/<uuid>.<ext> so no directory
// accumulates millions of entries.
func diskPath(originalFilename string) string {
	name := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return filepath.Join(name[0:2], name[2:4], name+ext)
}

// create persists a validated pending file: file first, row second. If the
// row insert fails the file is removed again, so no commit-visible row ever
// references a missing file and no failure leaves both behind.
func (s *Attachment) create(owner *domain.OwnerRef, field string, pending *domain.PendingFile, opts CreateOptions) (*domain.Attachment, error) {
	if err := s.checkRelation(owner, field); err != nil {
		return nil, err
	}

	att := &domain.Attachment{
		DiskPath:         diskPath(pending.Filename),
		OriginalFilename: pending.Filename,
		MimeType:         pending.MimeType,
		SizeBytes:        pending.SizeBytes,
		Protected:        opts.Protected,
		ImageWidth:       pending.ImageWidth,
		ImageHeight:      pending.ImageHeight,
		SortOrder:        opts.SortOrder,
	}
	if owner != nil && opts.SessionKey == "" {
		att.Bound = true
		att.Owner = *owner
		att.Field = field
	}

	if err := s.media.Save(pending.Data, att.Protected, att.DiskPath); err != nil {
		return nil, err
	}

	if _, err := s.storage.CreateAttachment(att); err != nil {
		// Compensating cleanup: the row never became visible, drop the file.
		if cleanupErr := s.media.Delete(att.DiskPath, att.Protected); cleanupErr != nil {
			logger.Log.Error("orphaned attachment file left on disk", "path", att.DiskPath, "error", cleanupErr)
		}
		return nil, err
	}

	if opts.SessionKey != "" {
		if err := s.storage.CreateDeferredBinding(opts.SessionKey, field, att.Id, true); err != nil {
			if cleanupErr := s.Delete(att.Id); cleanupErr != nil {
				logger.Log.Error("failed to clean up attachment after binding error", "id", att.Id, "error", cleanupErr)
			}
			return nil, err
		}
	}

	return att, nil
}

func (s *Attachment) CreateFromUpload(owner *domain.OwnerRef, field string, header *multipart.FileHeader, opts CreateOptions) (*domain.Attachment, error) {
	file, err := header.Open()
	if err != nil {
		return nil, &internal_errors.ValidationError{Message: fmt.Sprintf("failed to open uploaded file: %v", err)}
	}
	defer file.Close()

	pending, err := s.validator.Validate(header.Filename, file)
	if err != nil {
		return nil, err
	}
	return s.create(owner, field, pending, opts)
}

func (s *Attachment) CreateFromData(owner *domain.OwnerRef, field, filename string, data []byte, opts CreateOptions) (*domain.Attachment, error) {
	pending, err := s.validator.Validate(filename, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return s.create(owner, field, pending, opts)
}

func (s *Attachment) CreateFromPath(owner *domain.OwnerRef, field, localPath string, opts CreateOptions) (*domain.Attachment, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, &internal_errors.ValidationError{Message: fmt.Sprintf("can't open %s: %v", localPath, err)}
	}
	defer file.Close()

	pending, err := s.validator.Validate(filepath.Base(localPath), file)
	if err != nil {
		return nil, err
	}
	return s.create(owner, field, pending, opts)
}

func (s *Attachment) CreateFromURL(ctx context.Context, owner *domain.OwnerRef, field, rawURL, rename string, opts CreateOptions) (*domain.Attachment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &internal_errors.RetrievalError{URL: rawURL, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &internal_errors.RetrievalError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &internal_errors.RetrievalError{URL: rawURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	filename := rename
	if filename == "" {
		filename = path.Base(req.URL.Path)
	}
	if filename == "" || filename == "." || filename == "/" {
		return nil, &internal_errors.ValidationError{Message: "can't derive a filename from the URL, pass a rename"}
	}

	pending, err := s.validator.Validate(filename, resp.Body)
	if err != nil {
		return nil, err
	}
	return s.create(owner, field, pending, opts)
}

func (s *Attachment) Get(id domain.AttachmentId) (*domain.Attachment, error) {
	return s.storage.GetAttachment(id)
}

func (s *Attachment) List(owner domain.OwnerRef, field string) (domain.Attachments, error) {
	if err := s.checkRelation(&owner, field); err != nil {
		return nil, err
	}
	return s.storage.ListForOwner(owner, field)
}

func (s *Attachment) PublicURL(att *domain.Attachment) (string, error) {
	return s.media.PublicURL(att.DiskPath, att.Protected)
}

func (s *Attachment) LocalPath(att *domain.Attachment) (string, error) {
	return s.media.LocalPath(att.DiskPath, att.Protected)
}

func (s *Attachment) Stream(att *domain.Attachment) (io.ReadCloser, error) {
	return s.media.Read(att.DiskPath, att.Protected)
}

// Variant returns the relative disk path of a resized image variant,
// generating and caching it next to the original on first use.
func (s *Attachment) Variant(att *domain.Attachment, width, height int) (string, error) {
	if !att.IsImage() {
		return "", &internal_errors.ValidationError{Message: fmt.Sprintf("attachment %d is not an image", att.Id)}
	}
	if s.variantMaxPx > 0 {
		if width > s.variantMaxPx {
			width = s.variantMaxPx
		}
		if height > s.variantMaxPx {
			height = s.variantMaxPx
		}
	}

	dir, base := filepath.Split(att.DiskPath)
	variantPath := filepath.Join(dir, fmt.Sprintf("thumb_%dx%d_%s", width, height, base))
	if s.media.Exists(variantPath, att.Protected) {
		return variantPath, nil
	}

	original, err := s.media.Read(att.DiskPath, att.Protected)
	if err != nil {
		return "", err
	}
	defer original.Close()

	resized, err := imaging.Resize(original, width, height)
	if err != nil {
		return "", err
	}
	if err := s.media.Save(bytes.NewReader(resized), att.Protected, variantPath); err != nil {
		return "", err
	}
	return variantPath, nil
}

func (s *Attachment) Add(owner domain.OwnerRef, field string, id domain.AttachmentId) error {
	if err := s.checkRelation(&owner, field); err != nil {
		return err
	}
	return s.storage.AttachOwner(id, owner, field)
}

func (s *Attachment) Remove(owner domain.OwnerRef, field string, id domain.AttachmentId) error {
	if err := s.checkRelation(&owner, field); err != nil {
		return err
	}
	return s.storage.DetachOwner(id, owner, field)
}

// Delete removes the attachment entirely: row first, then file and cached
// variants. A crash in between orphans files, never rows.
func (s *Attachment) Delete(id domain.AttachmentId) error {
	att, err := s.storage.GetAttachment(id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteAttachment(id); err != nil {
		return err
	}
	if err := s.media.DeleteVariants(att.DiskPath, att.Protected); err != nil {
		logger.Log.Error("failed to delete attachment variants", "path", att.DiskPath, "error", err)
	}
	if err := s.media.Delete(att.DiskPath, att.Protected); err != nil {
		logger.Log.Error("failed to delete attachment file", "path", att.DiskPath, "error", err)
		return err
	}
	return nil
}

// DeferAdd queues binding an existing attachment to the session's future
// owner. Applied by CommitDeferred.
func (s *Attachment) DeferAdd(sessionKey, field string, id domain.AttachmentId) error {
	if _, err := s.storage.GetAttachment(id); err != nil {
		return err
	}
	return s.storage.CreateDeferredBinding(sessionKey, field, id, true)
}

// DeferRemove queues unbinding an attachment from the owner the session will
// be committed against.
func (s *Attachment) DeferRemove(sessionKey, field string, id domain.AttachmentId) error {
	if _, err := s.storage.GetAttachment(id); err != nil {
		return err
	}
	return s.storage.CreateDeferredBinding(sessionKey, field, id, false)
}

func (s *Attachment) CommitDeferred(sessionKey string, owner domain.OwnerRef) error {
	if _, err := s.registry.Model(owner.Kind); err != nil {
		return err
	}
	return s.storage.CommitDeferred(sessionKey, owner)
}

// DiscardDeferred drops a session's pending bindings and the files of
// attachments that never reached an owner.
func (s *Attachment) DiscardDeferred(sessionKey string) error {
	orphans, err := s.storage.DiscardDeferred(sessionKey)
	if err != nil {
		return err
	}
	for _, att := range orphans {
		if err := s.media.DeleteVariants(att.DiskPath, att.Protected); err != nil {
			logger.Log.Error("failed to delete orphan variants", "path", att.DiskPath, "error", err)
		}
		if err := s.media.Delete(att.DiskPath, att.Protected); err != nil {
			logger.Log.Error("failed to delete orphan file", "path", att.DiskPath, "error", err)
		}
	}
	return nil
}
