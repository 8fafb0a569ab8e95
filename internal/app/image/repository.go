package image

import "gorm.io/gorm"

type Repository interface {
	Create(img *Image) error
	GetByContentID(contentID uint64) (*Image, error)
	CountByThreadID(threadID uint64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(img *Image) error {
	return r.db.Create(img).Error
}

func (r *repository) GetByContentID(contentID uint64) (*Image, error) {
	var img Image
	err := r.db.Where("content_id = ?", contentID).First(&img).Error
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *repository) CountByThreadID(threadID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&Image{}).Where("thread_id = ?", threadID).Count(&count).Error
	return count, err
}

// QueueRepository is the durable removal queue. Enqueue happens inside the
// deleting transaction; Claim/Release belong to the purge worker. Claimed
// rows carry their ids so the worker can release exactly what it read and
// nothing enqueued mid-drain is lost.
type QueueRepository interface {
	Enqueue(tx *gorm.DB, paths ...string) error
	Claim() ([]RemovalQueueEntry, error)
	Release(ids []uint64) error
	Count() (int64, error)
}

type queueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db: db}
}

func (r *queueRepository) Enqueue(tx *gorm.DB, paths ...string) error {
	if tx == nil {
		tx = r.db
	}
	for _, path := range paths {
		if err := tx.Create(&RemovalQueueEntry{Path: path}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *queueRepository) Claim() ([]RemovalQueueEntry, error) {
	var entries []RemovalQueueEntry
	err := r.db.Order("id ASC").Find(&entries).Error
	return entries, err
}

func (r *queueRepository) Release(ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&RemovalQueueEntry{}).Error
}

func (r *queueRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&RemovalQueueEntry{}).Count(&count).Error
	return count, err
}
