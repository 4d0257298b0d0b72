package types

// Attachment types.
const (
	AttachmentTypeFile    = "file"
	AttachmentTypeWebLink = "weblink"
)

// Attachment is a logical attachment registered on the project: either a
// file stored beneath <project_dir>/attachments/ or an absolute web link.
// DisplayLabel is unique within the project; for file attachments Path is
// unique too.
type Attachment struct {
	ID             int64
	DisplayLabel   string
	AttachmentType string
	// Path is project-relative for files, an absolute URL for web links.
	Path        string
	Description string
	Metadata    map[string]any
}

// IsFile reports whether the attachment owns an on-disk blob.
func (a *Attachment) IsFile() bool { return a.AttachmentType == AttachmentTypeFile }
