package auth

import "gorm.io/gorm"

type Repository interface {
	Create(auth *DeletionAuth) error
	GetByContentID(contentID uint64) (*DeletionAuth, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(auth *DeletionAuth) error {
	return r.db.Create(auth).Error
}

func (r *repository) GetByContentID(contentID uint64) (*DeletionAuth, error) {
	var auth DeletionAuth
	err := r.db.Where("content_id = ?", contentID).First(&auth).Error
	if err != nil {
		return nil, err
	}
	return &auth, nil
}
