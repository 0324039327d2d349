package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/curator-cms/curator/internal/domain"
	internal_errors "github.com/curator-cms/curator/internal/errors"
)

const attachmentColumns = `id, owner_kind, owner_id, field, disk_path, original_filename,
	mime_type, size_bytes, protected, image_width, image_height, sort_order, created`

func scanAttachment(row interface{ Scan(...any) error }) (*domain.Attachment, error) {
	var a domain.Attachment
	var ownerKind, field sql.NullString
	var ownerId sql.NullInt64
	err := row.Scan(&a.Id, &ownerKind, &ownerId, &field, &a.DiskPath, &a.OriginalFilename,
		&a.MimeType, &a.SizeBytes, &a.Protected, &a.ImageWidth, &a.ImageHeight, &a.SortOrder, &a.Created)
	if err != nil {
		return nil, err
	}
	if ownerKind.Valid {
		a.Bound = true
		a.Owner = domain.OwnerRef{Kind: ownerKind.String, Id: ownerId.Int64}
		a.Field = field.String
	}
	return &a, nil
}

// CreateAttachment inserts one attachment row. The file must already be on
// disk; the caller removes it again if this fails.
func (s *Storage) CreateAttachment(a *domain.Attachment) (domain.AttachmentId, error) {
	created := time.Now().UTC().Round(time.Microsecond) // database anyway rounds to microsecond

	var ownerKind, field any
	var ownerId any
	if a.Bound {
		ownerKind, ownerId, field = a.Owner.Kind, a.Owner.Id, a.Field
	}

	var id domain.AttachmentId
	err := s.db.QueryRow(`
	INSERT INTO attachments(owner_kind, owner_id, field, disk_path, original_filename, mime_type, size_bytes, protected, image_width, image_height, sort_order, created)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id`,
		ownerKind, ownerId, field, a.DiskPath, a.OriginalFilename, a.MimeType,
		a.SizeBytes, a.Protected, a.ImageWidth, a.ImageHeight, a.SortOrder, created).Scan(&id)
	if err != nil {
		return -1, err
	}
	a.Id = id
	a.Created = created
	return id, nil
}

func (s *Storage) GetAttachment(id domain.AttachmentId) (*domain.Attachment, error) {
	row := s.db.QueryRow(`SELECT `+attachmentColumns+` FROM attachments WHERE id = $1`, id)
	a, err := scanAttachment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("attachment %d: %w", id, internal_errors.NotFound)
		}
		return nil, err
	}
	return a, nil
}

// DeleteAttachment removes the row. The caller deletes the file afterwards,
// so a crash in between orphans a file but never leaves a dangling row.
func (s *Storage) DeleteAttachment(id domain.AttachmentId) error {
	res, err := s.db.Exec(`DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("attachment %d: %w", id, internal_errors.NotFound)
	}
	return nil
}

// AttachOwner binds an existing attachment to an owner record. Rebinding to
// the same owner and field is a no-op, so add after remove leaves exactly
// one bound row.
func (s *Storage) AttachOwner(id domain.AttachmentId, owner domain.OwnerRef, field string) error {
	res, err := s.db.Exec(`
	UPDATE attachments
	SET owner_kind = $1, owner_id = $2, field = $3
	WHERE id = $4 AND (owner_kind IS NULL OR (owner_kind = $1 AND owner_id = $2 AND field = $3))`,
		owner.Kind, owner.Id, field, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the row does not exist or it is bound to another owner.
		if _, err := s.GetAttachment(id); err != nil {
			return err
		}
		return &internal_errors.ErrorWithStatusCode{Message: "Attachment is bound to another owner", StatusCode: 409}
	}
	return nil
}

// DetachOwner unbinds an attachment from its owner, keeping row and file.
func (s *Storage) DetachOwner(id domain.AttachmentId, owner domain.OwnerRef, field string) error {
	res, err := s.db.Exec(`
	UPDATE attachments
	SET owner_kind = NULL, owner_id = NULL, field = NULL
	WHERE id = $1 AND owner_kind = $2 AND owner_id = $3 AND field = $4`,
		id, owner.Kind, owner.Id, field)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("attachment %d bound to %s/%d field %s: %w", id, owner.Kind, owner.Id, field, internal_errors.NotFound)
	}
	return nil
}

func (s *Storage) ListForOwner(owner domain.OwnerRef, field string) (domain.Attachments, error) {
	rows, err := s.db.Query(`
	SELECT `+attachmentColumns+`
	FROM attachments
	WHERE owner_kind = $1 AND owner_id = $2 AND field = $3
	ORDER BY sort_order, id`,
		owner.Kind, owner.Id, field)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out domain.Attachments
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
