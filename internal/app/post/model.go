package post

import (
	"time"

	"onchan/internal/app/image"
)

// Content is a thread OP or a reply. ThreadID nil means this row IS a
// thread; non-nil points at the owning OP on the same board. Rows are
// created once and mutated only on the OP for the denormalized counters
// (Replies, ImageReplies, Sage), BumpedAt and LimitedAt.
type Content struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	Board     string    `json:"board" gorm:"not null;index"`
	ThreadID  *uint64   `json:"thread_id,omitempty" gorm:"index"`
	Name      string    `json:"name"`
	Tripcode  string    `json:"tripcode,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Comment   string    `json:"comment" gorm:"not null"`
	Options   string    `json:"options,omitempty"`

	// Sage counts non-bumping replies; Replies and ImageReplies are the
	// denormalized totals shown on the index.
	Replies      int `json:"replies"`
	ImageReplies int `json:"image_replies"`
	Sage         int `json:"sage"`

	// BumpedAt is the ordering key: advanced by bumping replies until
	// LimitedAt is stamped, frozen afterwards.
	BumpedAt  time.Time  `json:"bumped_at" gorm:"index"`
	LimitedAt *time.Time `json:"limited_at,omitempty"`

	Image  *image.Image `json:"image,omitempty" gorm:"-"`
	Quotes []*Content   `json:"quotes,omitempty" gorm:"-"`
}

func (Content) TableName() string {
	return "contents"
}

// UploadedFile carries raw upload bytes from the boundary into the pipeline.
type UploadedFile struct {
	Filename string
	Data     []byte
}

// PostResult is the structured outcome of a posting attempt. Validation and
// policy rejections land in Messages with OK=false; a stored comment whose
// image failed keeps OK=true with the failure message appended.
type PostResult struct {
	OK       bool         `json:"ok"`
	Messages []string     `json:"messages,omitempty"`
	Content  *Content     `json:"content,omitempty"`
	Image    *image.Image `json:"image,omitempty"`
}

type ThreadIndexResponse struct {
	Threads []*Content `json:"threads"`
	Page    int        `json:"page"`
}

type DeleteRequest struct {
	IDs        []uint64 `json:"ids" binding:"required"`
	ImagesOnly bool     `json:"images_only"`
	// Password authorizes the batch when no credential cookie is present.
	Password string `json:"password,omitempty"`
}

type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
