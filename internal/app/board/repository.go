package board

import "gorm.io/gorm"

type Repository interface {
	GetAllBoards() ([]*Board, error)
	GetBoardByPath(path string) (*Board, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetAllBoards() ([]*Board, error) {
	var boards []*Board
	err := r.db.
		Order("path ASC").
		Find(&boards).Error
	return boards, err
}

func (r *repository) GetBoardByPath(path string) (*Board, error) {
	var board Board
	err := r.db.Where("path = ?", path).First(&board).Error
	if err != nil {
		return nil, err
	}
	return &board, nil
}
