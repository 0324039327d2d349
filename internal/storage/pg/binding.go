package pg

import (
	"time"

	"github.com/curator-cms/curator/internal/domain"
)

// CreateDeferredBinding records a pending bind/unbind keyed by session.
func (s *Storage) CreateDeferredBinding(sessionKey, field string, attachmentId domain.AttachmentId, bind bool) error {
	created := time.Now().UTC().Round(time.Microsecond)
	_, err := s.db.Exec(`
	INSERT INTO deferred_bindings(session_key, field, attachment_id, bind, created)
	VALUES($1, $2, $3, $4, $5)`,
		sessionKey, field, attachmentId, bind, created)
	return err
}

// CommitDeferred applies all pending bindings of a session to the owner in
// one transaction, in the order they were deferred, then drops them.
func (s *Storage) CommitDeferred(sessionKey string, owner domain.OwnerRef) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() // The rollback will be ignored if the tx has been committed later in the function.

	rows, err := tx.Query(`
	SELECT field, attachment_id, bind
	FROM deferred_bindings
	WHERE session_key = $1
	ORDER BY id`, sessionKey)
	if err != nil {
		return err
	}

	type pending struct {
		field string
		attId domain.AttachmentId
		bind  bool
	}
	var items []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.field, &p.attId, &p.bind); err != nil {
			rows.Close()
			return err
		}
		items = append(items, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range items {
		if p.bind {
			_, err = tx.Exec(`
			UPDATE attachments SET owner_kind = $1, owner_id = $2, field = $3
			WHERE id = $4 AND (owner_kind IS NULL OR (owner_kind = $1 AND owner_id = $2 AND field = $3))`,
				owner.Kind, owner.Id, p.field, p.attId)
		} else {
			_, err = tx.Exec(`
			UPDATE attachments SET owner_kind = NULL, owner_id = NULL, field = NULL
			WHERE id = $1 AND owner_kind = $2 AND owner_id = $3 AND field = $4`,
				p.attId, owner.Kind, owner.Id, p.field)
		}
		if err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`DELETE FROM deferred_bindings WHERE session_key = $1`, sessionKey); err != nil {
		return err
	}

	return tx.Commit()
}

// DiscardDeferred drops a session's pending bindings and deletes attachment
// rows that were uploaded for it but never bound to any owner. It returns
// the deleted attachments so the caller can remove their files.
func (s *Storage) DiscardDeferred(sessionKey string) (domain.Attachments, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // The rollback will be ignored if the tx has been committed later in the function.

	rows, err := tx.Query(`
	SELECT `+attachmentColumns+`
	FROM attachments
	WHERE owner_kind IS NULL AND id IN (
		SELECT attachment_id FROM deferred_bindings WHERE session_key = $1 AND bind
	)`, sessionKey)
	if err != nil {
		return nil, err
	}

	var orphans domain.Attachments
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orphans = append(orphans, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`DELETE FROM deferred_bindings WHERE session_key = $1`, sessionKey); err != nil {
		return nil, err
	}
	for _, a := range orphans {
		if _, err := tx.Exec(`DELETE FROM attachments WHERE id = $1`, a.Id); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return orphans, nil
}
