package auth

import "time"

// DeletionAuth ties a content row (and optionally its image) to the one
// password hash allowed to delete it. Created once per post that supplied a
// credential, read on every delete attempt, never updated. Content without a
// row here can never be deleted.
type DeletionAuth struct {
	ID           uint64    `json:"id" gorm:"primaryKey"`
	ContentID    uint64    `json:"content_id" gorm:"not null;index"`
	ImageID      *uint64   `json:"image_id,omitempty"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (DeletionAuth) TableName() string {
	return "deletion_auths"
}
