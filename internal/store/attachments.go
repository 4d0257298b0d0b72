package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riverscapes/qris/internal/common"
	"github.com/riverscapes/qris/internal/paths"
	"github.com/riverscapes/qris/pkg/types"
)

func attachmentFromRow(r attachmentRow) *types.Attachment {
	return &types.Attachment{
		ID:             r.ID,
		DisplayLabel:   r.DisplayLabel,
		AttachmentType: r.AttachmentType,
		Path:           r.Path,
		Description:    r.Description.String,
		Metadata:       decodeAnyMap(r.Metadata),
	}
}

// attachmentConstraintError maps the driver's UNIQUE violation message to
// the registry's sentinel errors. Anything else passes through unchanged.
func attachmentConstraintError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "attachments.display_label"):
		return fmt.Errorf("%w: %v", types.ErrDuplicateLabel, err)
	case strings.Contains(msg, "attachments.path"):
		return fmt.Errorf("%w: %v", types.ErrDuplicatePath, err)
	}
	return err
}

// CreateFileAttachment copies sourceFile into the project's attachments
// directory and registers it. The stored path is project-relative with
// posix separators. The blob name derives from the display label, keeping
// the source file's extension.
func (s *Store) CreateFileAttachment(ctx context.Context, label, sourceFile, description string, metadata map[string]any) (*types.Attachment, error) {
	dir := paths.AttachmentsDir(s.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating attachments directory: %w", err)
	}

	blobName := paths.SafeFileName(label, filepath.Ext(sourceFile))
	relPath := paths.ToPosix(filepath.Join("attachments", blobName))
	destFile := filepath.Join(dir, blobName)

	attachment := &types.Attachment{
		DisplayLabel:   label,
		AttachmentType: types.AttachmentTypeFile,
		Path:           relPath,
		Description:    description,
		Metadata:       metadata,
	}

	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	err = withTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := insertAttachmentTx(ctx, tx, attachment); err != nil {
			return err
		}
		// The blob lands only after the row is accepted, so a duplicate
		// label or path never leaves an orphan file behind.
		return copyFile(sourceFile, destFile)
	})
	if err != nil {
		return nil, err
	}
	common.Logger().Debug("store: created file attachment",
		"label", label, "path", relPath)
	return attachment, nil
}

// CreateWebLinkAttachment registers an absolute URL as an attachment. No
// blob is written.
func (s *Store) CreateWebLinkAttachment(ctx context.Context, label, rawURL, description string, metadata map[string]any) (*types.Attachment, error) {
	if !paths.IsURL(rawURL) {
		return nil, fmt.Errorf("%q is not an absolute URL", rawURL)
	}
	attachment := &types.Attachment{
		DisplayLabel:   label,
		AttachmentType: types.AttachmentTypeWebLink,
		Path:           rawURL,
		Description:    description,
		Metadata:       metadata,
	}

	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	err = withTx(ctx, db, func(tx *sqlx.Tx) error {
		return insertAttachmentTx(ctx, tx, attachment)
	})
	if err != nil {
		return nil, err
	}
	return attachment, nil
}

func insertAttachmentTx(ctx context.Context, tx *sqlx.Tx, a *types.Attachment) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO attachments (display_label, attachment_type, path, description, metadata) VALUES (?, ?, ?, ?, ?)",
		a.DisplayLabel, a.AttachmentType, a.Path, nullable(a.Description), encodeAnyMap(a.Metadata))
	if err != nil {
		return attachmentConstraintError(err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading attachment id: %w", err)
	}
	return nil
}

// UpdateAttachment renames an attachment's label and description. When a
// file attachment's label changes, the blob is renamed to match inside the
// same transaction: if the rename fails the row change rolls back, and if
// the new label collides the blob is never touched.
func (s *Store) UpdateAttachment(ctx context.Context, id int64, label, description string) (*types.Attachment, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	current, err := getAttachment(ctx, db, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.DisplayLabel = label
	updated.Description = description

	var oldBlob, newBlob string
	if current.IsFile() && label != current.DisplayLabel {
		dir := filepath.Dir(s.Path())
		blobName := paths.SafeFileName(label, filepath.Ext(current.Path))
		updated.Path = paths.ToPosix(filepath.Join("attachments", blobName))
		oldBlob = filepath.Join(dir, filepath.FromSlash(current.Path))
		newBlob = filepath.Join(dir, filepath.FromSlash(updated.Path))
	}

	err = withTx(ctx, db, func(tx *sqlx.Tx) error {
		// The blob path derives from the label, so a taken label would
		// trip the path index first. Check the label explicitly to
		// report the real conflict.
		var taken int
		err := tx.GetContext(ctx, &taken,
			"SELECT COUNT(*) FROM attachments WHERE display_label = ? AND attachment_id != ?",
			updated.DisplayLabel, id)
		if err != nil {
			return fmt.Errorf("checking attachment label: %w", err)
		}
		if taken > 0 {
			return fmt.Errorf("%w: %q", types.ErrDuplicateLabel, updated.DisplayLabel)
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE attachments SET display_label = ?, path = ?, description = ? WHERE attachment_id = ?",
			updated.DisplayLabel, updated.Path, nullable(updated.Description), id)
		if err != nil {
			return attachmentConstraintError(err)
		}
		if oldBlob != "" && oldBlob != newBlob {
			if err := os.Rename(oldBlob, newBlob); err != nil {
				return fmt.Errorf("renaming attachment blob: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAttachment removes the registry row. For file attachments, blob
// removal is best effort: a missing or locked file logs a warning and the
// delete still succeeds.
func (s *Store) DeleteAttachment(ctx context.Context, id int64) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	current, err := getAttachment(ctx, db, id)
	if err != nil {
		return err
	}

	err = withTx(ctx, db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM attachments WHERE attachment_id = ?", id)
		return err
	})
	if err != nil {
		return fmt.Errorf("deleting attachment %d: %w", id, err)
	}

	if current.IsFile() {
		blob := filepath.Join(filepath.Dir(s.Path()), filepath.FromSlash(current.Path))
		if err := os.Remove(blob); err != nil && !os.IsNotExist(err) {
			common.Logger().Warn("store: attachment blob not removed",
				"path", blob, "error", err)
		}
	}
	return nil
}

// ListAttachments returns all attachments ordered by display label.
func (s *Store) ListAttachments(ctx context.Context) ([]*types.Attachment, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var rows []attachmentRow
	err = db.SelectContext(ctx, &rows,
		"SELECT attachment_id, display_label, attachment_type, path, description, metadata FROM attachments ORDER BY display_label")
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	out := make([]*types.Attachment, len(rows))
	for i, r := range rows {
		out[i] = attachmentFromRow(r)
	}
	return out, nil
}

func getAttachment(ctx context.Context, db *sqlx.DB, id int64) (*types.Attachment, error) {
	var r attachmentRow
	err := db.GetContext(ctx, &r,
		"SELECT attachment_id, display_label, attachment_type, path, description, metadata FROM attachments WHERE attachment_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("%w: attachment %d", types.ErrNotFound, id)
	}
	return attachmentFromRow(r), nil
}

func encodeAnyMap(m map[string]any) any {
	if len(m) == 0 {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return string(raw)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying to %s: %w", dest, err)
	}
	return out.Close()
}
