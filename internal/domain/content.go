package domain

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContentKind identifies what a capsule content item holds.
type ContentKind string

// Possible content kind values
const (
	ContentKindText     ContentKind = "text"
	ContentKindImage    ContentKind = "image"
	ContentKindVideo    ContentKind = "video"
	ContentKindAudio    ContentKind = "audio"
	ContentKindDocument ContentKind = "document"
)

// Content-specific validation errors
var (
	ErrEmptyContentID        = errors.New("content ID cannot be empty")
	ErrEmptyContentCapsuleID = errors.New("content capsule ID cannot be empty")
	ErrInvalidContentKind    = errors.New("invalid content kind")
	ErrBlankContent          = errors.New("content must have either text or a stored object")
	ErrAmbiguousContent      = errors.New("content cannot have both text and a stored object")
	ErrUnsupportedFileType   = errors.New("unsupported file type")
)

// Extension allowlists per content kind. Anything outside these sets is
// rejected at upload time.
var (
	imageExtensions    = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff"}
	videoExtensions    = []string{".mp4", ".avi", ".mov", ".webm", ".mkv", ".flv", ".wmv"}
	audioExtensions    = []string{".mp3", ".wav", ".ogg", ".m4a", ".flac", ".aac", ".wma"}
	documentExtensions = []string{".pdf", ".doc", ".docx", ".txt", ".rtf", ".odt", ".epub"}
)

// CapsuleContent is a single content item inside a capsule: either a block
// of text or a reference to an uploaded object, ordered by Position for
// display purposes.
type CapsuleContent struct {
	ID          uuid.UUID   `json:"id"`
	CapsuleID   uuid.UUID   `json:"capsule_id"`
	Kind        ContentKind `json:"kind"`
	Text        string      `json:"text,omitempty"`
	ObjectKey   string      `json:"-"` // Storage key, never exposed directly; clients get presigned URLs
	FileName    string      `json:"file_name,omitempty"`
	ContentType string      `json:"content_type,omitempty"`
	Position    int         `json:"position"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewTextContent creates a text content item for the given capsule.
func NewTextContent(capsuleID uuid.UUID, text string, position int) (*CapsuleContent, error) {
	content := &CapsuleContent{
		ID:        uuid.New(),
		CapsuleID: capsuleID,
		Kind:      ContentKindText,
		Text:      text,
		Position:  position,
		CreatedAt: time.Now().UTC(),
	}

	if err := content.Validate(); err != nil {
		return nil, err
	}

	return content, nil
}

// NewFileContent creates a file-backed content item for the given capsule.
// The content kind is derived from the file name's extension; files with
// extensions outside the allowlist are rejected with ErrUnsupportedFileType.
func NewFileContent(
	capsuleID uuid.UUID,
	fileName, objectKey, contentType string,
	position int,
) (*CapsuleContent, error) {
	kind, err := KindForFileName(fileName)
	if err != nil {
		return nil, err
	}

	content := &CapsuleContent{
		ID:          uuid.New(),
		CapsuleID:   capsuleID,
		Kind:        kind,
		ObjectKey:   objectKey,
		FileName:    fileName,
		ContentType: contentType,
		Position:    position,
		CreatedAt:   time.Now().UTC(),
	}

	if err := content.Validate(); err != nil {
		return nil, err
	}

	return content, nil
}

// Validate checks if the CapsuleContent has valid data.
// Returns an error if any field fails validation.
func (c *CapsuleContent) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyContentID
	}

	if c.CapsuleID == uuid.Nil {
		return ErrEmptyContentCapsuleID
	}

	if !isValidContentKind(c.Kind) {
		return ErrInvalidContentKind
	}

	hasText := c.Text != ""
	hasObject := c.ObjectKey != ""
	if !hasText && !hasObject {
		return ErrBlankContent
	}
	if hasText && hasObject {
		return ErrAmbiguousContent
	}

	return nil
}

// KindForFileName maps a file name to a content kind using the extension
// allowlists. Returns ErrUnsupportedFileType for anything else.
func KindForFileName(name string) (ContentKind, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case containsExt(imageExtensions, ext):
		return ContentKindImage, nil
	case containsExt(videoExtensions, ext):
		return ContentKindVideo, nil
	case containsExt(audioExtensions, ext):
		return ContentKindAudio, nil
	case containsExt(documentExtensions, ext):
		return ContentKindDocument, nil
	default:
		return "", ErrUnsupportedFileType
	}
}

func containsExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// isValidContentKind checks if the given kind is a valid ContentKind.
func isValidContentKind(k ContentKind) bool {
	switch k {
	case ContentKindText, ContentKindImage, ContentKindVideo,
		ContentKindAudio, ContentKindDocument:
		return true
	default:
		return false
	}
}
