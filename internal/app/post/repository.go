package post

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"onchan/internal/app/auth"
	"onchan/internal/app/board"
	"onchan/internal/app/image"
	"onchan/internal/validation"
)

var (
	ErrNotFound           = errors.New("content not found")
	ErrCapacityExceeded   = errors.New("board thread capacity exceeded")
	ErrImageLimitExceeded = errors.New("thread image limit exceeded")
)

// Boards keep at most 2x thread_limit stored threads: the visible index caps
// at thread_limit, the rest linger for direct linking until the hard guard
// trips.
const threadOverflowFactor = 2

type Repository interface {
	CreateThread(b *board.Board, content *Content) error
	CreateReply(b *board.Board, threadID uint64, content *Content, opts validation.Options, hasImage bool) error
	IncrementImageReplies(threadID uint64) error
	GetThreadIndex(b *board.Board, page, pageSize, quoteLimit int) ([]*Content, error)
	GetThread(boardPath string, id uint64) (*Content, error)
	GetQuotedReplies(threadID uint64, limit int) ([]*Content, error)
	DeleteContent(board string, ids []uint64, passwordHash string) (int64, error)
	DeleteImagesOnly(board string, ids []uint64, passwordHash string) (int64, error)
}

type repository struct {
	db        *gorm.DB
	queueRepo image.QueueRepository
}

func NewRepository(db *gorm.DB, queueRepo image.QueueRepository) Repository {
	return &repository{db: db, queueRepo: queueRepo}
}

func (r *repository) CreateThread(b *board.Board, content *Content) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&Content{}).
			Where("board = ? AND thread_id IS NULL", b.Path).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count >= int64(threadOverflowFactor*b.ThreadLimit) {
			return ErrCapacityExceeded
		}

		now := time.Now().UTC()
		content.Board = b.Path
		content.ThreadID = nil
		content.CreatedAt = now
		content.BumpedAt = now
		return tx.Create(content).Error
	})
}

// CreateReply persists a reply and maintains the OP's denormalized state in
// the same transaction: reply counters, the sage counter for non-bumping
// replies, the bump key while the thread is not limited, and the limited_at
// stamp once bump_limit bumping replies have accumulated.
func (r *repository) CreateReply(b *board.Board, threadID uint64, content *Content, opts validation.Options, hasImage bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var op Content
		err := tx.Where("id = ? AND board = ? AND thread_id IS NULL", threadID, b.Path).
			First(&op).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if hasImage {
			var imageCount int64
			err := tx.Model(&image.Image{}).
				Where("thread_id = ?", op.ID).
				Count(&imageCount).Error
			if err != nil {
				return err
			}
			if imageCount >= int64(b.ImageLimit) {
				return ErrImageLimitExceeded
			}
		}

		now := time.Now().UTC()
		content.Board = b.Path
		content.ThreadID = &op.ID
		content.CreatedAt = now
		content.BumpedAt = now
		content.Subject = ""
		if err := tx.Create(content).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"replies": gorm.Expr("replies + 1"),
		}

		bumps := opts.Bumps()
		if !bumps {
			updates["sage"] = gorm.Expr("sage + 1")
		}
		if bumps && op.LimitedAt == nil {
			updates["bumped_at"] = now

			bumpingReplies := op.Replies - op.Sage + 1
			if bumpingReplies >= b.BumpLimit {
				updates["limited_at"] = now
			}
		}

		return tx.Model(&Content{}).
			Where("id = ?", op.ID).
			Updates(updates).Error
	})
}

func (r *repository) IncrementImageReplies(threadID uint64) error {
	return r.db.Model(&Content{}).
		Where("id = ?", threadID).
		Update("image_replies", gorm.Expr("image_replies + 1")).Error
}

// GetThreadIndex returns one page of threads ordered by bump key. The
// visible window is capped at the board's thread_limit: threads ranked
// beyond it have fallen off the index even though their rows still exist.
func (r *repository) GetThreadIndex(b *board.Board, page, pageSize, quoteLimit int) ([]*Content, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset >= b.ThreadLimit {
		return []*Content{}, nil
	}
	limit := pageSize
	if offset+limit > b.ThreadLimit {
		limit = b.ThreadLimit - offset
	}

	var threads []*Content
	err := r.db.
		Where("board = ? AND thread_id IS NULL", b.Path).
		Order("bumped_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&threads).Error
	if err != nil {
		return nil, err
	}

	for _, t := range threads {
		if err := r.attachImages(t); err != nil {
			return nil, err
		}
		quotes, err := r.GetQuotedReplies(t.ID, quoteLimit)
		if err != nil {
			return nil, err
		}
		t.Quotes = quotes
	}

	return threads, nil
}

func (r *repository) GetThread(boardPath string, id uint64) (*Content, error) {
	var op Content
	err := r.db.Where("id = ? AND board = ? AND thread_id IS NULL", id, boardPath).
		First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var replies []*Content
	err = r.db.Where("thread_id = ?", op.ID).
		Order("created_at ASC, id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	op.Quotes = replies

	if err := r.attachImages(&op); err != nil {
		return nil, err
	}
	for _, reply := range replies {
		if err := r.attachImages(reply); err != nil {
			return nil, err
		}
	}

	return &op, nil
}

// GetQuotedReplies selects the most recent limit replies but hands them back
// in chronological order: an inner descending-limited select re-sorted
// ascending by the outer one.
func (r *repository) GetQuotedReplies(threadID uint64, limit int) ([]*Content, error) {
	var replies []*Content
	err := r.db.Raw(`
		SELECT * FROM (
			SELECT * FROM contents
			WHERE thread_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		) AS recent
		ORDER BY created_at ASC, id ASC
	`, threadID, limit).Scan(&replies).Error
	if err != nil {
		return nil, err
	}

	for _, reply := range replies {
		if err := r.attachImages(reply); err != nil {
			return nil, err
		}
	}

	return replies, nil
}

// DeleteContent removes the rows in ids whose deletion_auth matches
// passwordHash exactly; everything else is silently skipped. Deleting an OP
// takes its replies with it, so no reply row is ever left pointing at a dead
// thread and no reply image outlives its file-queue entry. Image files are
// enqueued for the purge worker, never unlinked inline. Authorization check
// and row mutation share one transaction.
func (r *repository) DeleteContent(board string, ids []uint64, passwordHash string) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		authorized, err := authorizedIDs(tx, board, ids, passwordHash)
		if err != nil {
			return err
		}
		if len(authorized) == 0 {
			return nil
		}

		var replyIDs []uint64
		err = tx.Model(&Content{}).
			Where("thread_id IN ? AND id NOT IN ?", authorized, authorized).
			Pluck("id", &replyIDs).Error
		if err != nil {
			return err
		}

		doomed := append(append([]uint64{}, authorized...), replyIDs...)

		if err := r.enqueueImageFiles(tx, doomed); err != nil {
			return err
		}
		if err := tx.Where("content_id IN ?", doomed).Delete(&image.Image{}).Error; err != nil {
			return err
		}
		if err := tx.Where("content_id IN ?", doomed).Delete(&auth.DeletionAuth{}).Error; err != nil {
			return err
		}

		// Replies first: contents.thread_id references the OP row.
		if len(replyIDs) > 0 {
			if err := tx.Where("id IN ?", replyIDs).Delete(&Content{}).Error; err != nil {
				return err
			}
		}

		res := tx.Where("id IN ?", authorized).Delete(&Content{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// DeleteImagesOnly strips authorized rows of their image (enqueueing the
// files) while the comment stays up.
func (r *repository) DeleteImagesOnly(board string, ids []uint64, passwordHash string) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		authorized, err := authorizedIDs(tx, board, ids, passwordHash)
		if err != nil {
			return err
		}
		if len(authorized) == 0 {
			return nil
		}

		if err := r.enqueueImageFiles(tx, authorized); err != nil {
			return err
		}

		res := tx.Where("content_id IN ?", authorized).Delete(&image.Image{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// authorizedIDs narrows ids to those whose deletion_auth matches the hash
// and whose content row lives on the requested board; a credential never
// reaches across boards.
func authorizedIDs(tx *gorm.DB, board string, ids []uint64, passwordHash string) ([]uint64, error) {
	if len(ids) == 0 || passwordHash == "" {
		return nil, nil
	}
	var matched []uint64
	err := tx.Model(&auth.DeletionAuth{}).
		Where("content_id IN ? AND password_hash = ?", ids, passwordHash).
		Pluck("content_id", &matched).Error
	if err != nil || len(matched) == 0 {
		return nil, err
	}
	var authorized []uint64
	err = tx.Model(&Content{}).
		Where("id IN ? AND board = ?", matched, board).
		Pluck("id", &authorized).Error
	return authorized, err
}

func (r *repository) enqueueImageFiles(tx *gorm.DB, contentIDs []uint64) error {
	var imgs []*image.Image
	if err := tx.Where("content_id IN ?", contentIDs).Find(&imgs).Error; err != nil {
		return err
	}
	for _, img := range imgs {
		if err := r.queueRepo.Enqueue(tx, img.Filename, image.ThumbKey(img.Filename)); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) attachImages(c *Content) error {
	var img image.Image
	err := r.db.Where("content_id = ?", c.ID).First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	c.Image = &img
	return nil
}
