package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverscapes/qris/pkg/types"
)

// writeSourceFile drops a throwaway blob outside the project directory.
func writeSourceFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCreateFileAttachment(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	src := writeSourceFile(t, "field notes.pdf", "pdf bytes")

	a, err := s.CreateFileAttachment(ctx, "Field Notes", src, "scanned notebook", nil)
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	assert.Equal(t, "attachments/Field_Notes.pdf", a.Path)
	assert.True(t, a.IsFile())

	blob := filepath.Join(s.Dir(), "attachments", "Field_Notes.pdf")
	content, err := os.ReadFile(blob)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(content))
}

func TestCreateAttachmentDuplicateLabel(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	src := writeSourceFile(t, "a.txt", "x")

	_, err := s.CreateFileAttachment(ctx, "Notes", src, "", nil)
	require.NoError(t, err)

	_, err = s.CreateWebLinkAttachment(ctx, "Notes", "https://example.com/notes", "", nil)
	require.ErrorIs(t, err, types.ErrDuplicateLabel)
}

func TestCreateFileAttachmentDuplicatePath(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	src := writeSourceFile(t, "a.txt", "x")

	// Labels that differ only in spacing collapse to the same blob name.
	_, err := s.CreateFileAttachment(ctx, "Survey  Notes", src, "", nil)
	require.NoError(t, err)
	_, err = s.CreateFileAttachment(ctx, "Survey Notes", src, "", nil)
	require.Error(t, err)
}

func TestWebLinksShareAPath(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// The path uniqueness rule binds file attachments only.
	_, err := s.CreateWebLinkAttachment(ctx, "Link A", "https://example.com/shared", "", nil)
	require.NoError(t, err)
	_, err = s.CreateWebLinkAttachment(ctx, "Link B", "https://example.com/shared", "", nil)
	require.NoError(t, err)
}

func TestCreateWebLinkAttachmentRejectsBarePath(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateWebLinkAttachment(context.Background(), "Bad", "not-a-url", "", nil)
	require.Error(t, err)
}

func TestUpdateAttachmentRenamesBlob(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	src := writeSourceFile(t, "map.png", "png")

	a, err := s.CreateFileAttachment(ctx, "Old Map", src, "", nil)
	require.NoError(t, err)

	updated, err := s.UpdateAttachment(ctx, a.ID, "New Map", "renamed")
	require.NoError(t, err)
	assert.Equal(t, "attachments/New_Map.png", updated.Path)
	assert.Equal(t, "renamed", updated.Description)

	assert.FileExists(t, filepath.Join(s.Dir(), "attachments", "New_Map.png"))
	assert.NoFileExists(t, filepath.Join(s.Dir(), "attachments", "Old_Map.png"))
}

func TestUpdateAttachmentCollisionLeavesBlob(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	src := writeSourceFile(t, "a.txt", "x")

	_, err := s.CreateFileAttachment(ctx, "Taken", src, "", nil)
	require.NoError(t, err)
	b, err := s.CreateFileAttachment(ctx, "Original", src, "", nil)
	require.NoError(t, err)

	_, err = s.UpdateAttachment(ctx, b.ID, "Taken", "")
	require.ErrorIs(t, err, types.ErrDuplicateLabel)

	// The row change rolled back and the blob was never touched.
	assert.FileExists(t, filepath.Join(s.Dir(), "attachments", "Original.txt"))
	list, err := s.ListAttachments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Original", list[0].DisplayLabel)
	assert.Equal(t, "Taken", list[1].DisplayLabel)
}

func TestDeleteAttachment(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	src := writeSourceFile(t, "gone.txt", "x")

	a, err := s.CreateFileAttachment(ctx, "Gone", src, "", nil)
	require.NoError(t, err)
	blob := filepath.Join(s.Dir(), "attachments", "Gone.txt")
	require.FileExists(t, blob)

	require.NoError(t, s.DeleteAttachment(ctx, a.ID))
	assert.NoFileExists(t, blob)

	list, err := s.ListAttachments(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteAttachmentSurvivesMissingBlob(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	src := writeSourceFile(t, "gone.txt", "x")

	a, err := s.CreateFileAttachment(ctx, "Gone", src, "", nil)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(s.Dir(), "attachments", "Gone.txt")))

	assert.NoError(t, s.DeleteAttachment(ctx, a.ID))
}

func TestDeleteAttachmentNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.DeleteAttachment(context.Background(), 42)
	require.ErrorIs(t, err, types.ErrNotFound)
}
