package image

import "time"

// Image is the stored upload paired 1:0..1 with a content row. ContentID is
// nullable because the file lands before the pairing commits. ThreadID is
// denormalized so per-thread image counts are a single indexed count.
type Image struct {
	ID           uint64    `json:"id" gorm:"primaryKey"`
	CreatedAt    time.Time `json:"created_at"`
	ContentID    *uint64   `json:"content_id,omitempty" gorm:"index"`
	Filename     string    `json:"filename" gorm:"not null"`
	OrigFilename string    `json:"orig_filename" gorm:"not null"`
	Size         int64     `json:"size" gorm:"not null"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Checksum     string    `json:"checksum" gorm:"not null"`
	// Version is reserved for edit history; always 1 today.
	Version  int     `json:"version" gorm:"not null;default:1"`
	URL      string  `json:"url" gorm:"not null"`
	ThreadID *uint64 `json:"thread_id,omitempty" gorm:"index"`
}

func (Image) TableName() string {
	return "images"
}

// RemovalQueueEntry is a durable record of a file key slated for deletion.
// Written synchronously when an image row dies, drained by the purge worker.
type RemovalQueueEntry struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	Path      string    `json:"path" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (RemovalQueueEntry) TableName() string {
	return "image_removal_queue"
}
