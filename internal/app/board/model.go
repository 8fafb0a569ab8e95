package board

import "time"

type Board struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	Path        string    `json:"path" gorm:"unique;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	ThreadLimit int       `json:"thread_limit" gorm:"not null"`
	ImageLimit  int       `json:"image_limit" gorm:"not null"`
	BumpLimit   int       `json:"bump_limit" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Board) TableName() string {
	return "boards"
}

type BoardListResponse struct {
	Boards []*Board `json:"boards"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
