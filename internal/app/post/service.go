package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"onchan/internal/app/auth"
	"onchan/internal/app/board"
	"onchan/internal/app/image"
	"onchan/internal/providers/redis"
	"onchan/internal/validation"
)

const (
	indexPageSize   = 10
	indexQuoteLimit = 5
	cacheTTL        = 5 * time.Minute
)

type Service interface {
	CreateThread(ctx context.Context, boardPath, name, subject, optionsRaw, comment string, file *UploadedFile, passwordHash string) (*PostResult, error)
	CreateReply(ctx context.Context, boardPath string, threadID uint64, name, optionsRaw, comment string, file *UploadedFile, passwordHash string) (*PostResult, error)
	GetThreadIndex(ctx context.Context, boardPath string, page int) ([]*Content, error)
	GetThread(ctx context.Context, boardPath string, id uint64) (*Content, error)
	GetQuotedReplies(threadID uint64, limit int) ([]*Content, error)
	DeleteContent(ctx context.Context, boardPath string, ids []uint64, passwordHash string) (int64, error)
	DeleteImagesOnly(ctx context.Context, boardPath string, ids []uint64, passwordHash string) (int64, error)
}

type service struct {
	repo      Repository
	boardSvc  board.Service
	imageSvc  image.Service
	authSvc   auth.Service
	validator *validation.Validator
	redisP    *redis.RedisProvider
	logger    *zap.SugaredLogger
}

func NewService(
	repo Repository,
	boardSvc board.Service,
	imageSvc image.Service,
	authSvc auth.Service,
	validator *validation.Validator,
	redisP *redis.RedisProvider,
	logger *zap.Logger,
) Service {
	return &service{
		repo:      repo,
		boardSvc:  boardSvc,
		imageSvc:  imageSvc,
		authSvc:   authSvc,
		validator: validator,
		redisP:    redisP,
		logger:    logger.Sugar(),
	}
}

// CreateThread runs the full posting pipeline for an OP: validate, write the
// comment row, attach the image, record the deletion credential. The comment
// survives a failed image attach; the failure is reported in Messages while
// the returned content id stays usable.
func (s *service) CreateThread(ctx context.Context, boardPath, name, subject, optionsRaw, comment string, file *UploadedFile, passwordHash string) (*PostResult, error) {
	res := s.validator.NewThread(name, subject, optionsRaw, comment, fileMeta(file))
	if !res.OK {
		return &PostResult{OK: false, Messages: res.Messages}, nil
	}

	b, err := s.boardSvc.GetBoardByPath(boardPath)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	content := &Content{
		Name:     name,
		Tripcode: res.Options.Tripcode,
		Subject:  subject,
		Comment:  comment,
		Options:  optionsRaw,
	}
	if err := s.repo.CreateThread(b, content); err != nil {
		return nil, err
	}

	result := &PostResult{OK: true, Content: content}

	var imageID *uint64
	if file != nil {
		img, err := s.imageSvc.Attach(content.ID, &content.ID, file.Data, file.Filename)
		if err != nil {
			s.logger.Warnw("Image attach failed, comment kept",
				"content_id", content.ID,
				"error", err,
			)
			result.Messages = append(result.Messages, err.Error())
		} else {
			result.Image = img
			imageID = &img.ID
		}
	}

	if err := s.authSvc.Record(content.ID, imageID, passwordHash); err != nil {
		return nil, err
	}

	s.invalidateIndexCache(b.Path)

	s.logger.Infow("Thread created",
		"board", b.Path,
		"content_id", content.ID,
	)

	return result, nil
}

// CreateReply runs the posting pipeline for a reply. Image-limit enforcement
// happens at creation time inside the repository transaction; the
// image_replies counter is only advanced once the attach actually succeeds.
func (s *service) CreateReply(ctx context.Context, boardPath string, threadID uint64, name, optionsRaw, comment string, file *UploadedFile, passwordHash string) (*PostResult, error) {
	res := s.validator.NewReply(name, optionsRaw, comment, fileMeta(file))
	if !res.OK {
		return &PostResult{OK: false, Messages: res.Messages}, nil
	}

	b, err := s.boardSvc.GetBoardByPath(boardPath)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	content := &Content{
		Name:     name,
		Tripcode: res.Options.Tripcode,
		Comment:  comment,
		Options:  optionsRaw,
	}
	if err := s.repo.CreateReply(b, threadID, content, res.Options, file != nil); err != nil {
		return nil, err
	}

	result := &PostResult{OK: true, Content: content}

	var imageID *uint64
	if file != nil {
		img, err := s.imageSvc.Attach(content.ID, &threadID, file.Data, file.Filename)
		if err != nil {
			s.logger.Warnw("Image attach failed, comment kept",
				"content_id", content.ID,
				"error", err,
			)
			result.Messages = append(result.Messages, err.Error())
		} else {
			result.Image = img
			imageID = &img.ID
			if err := s.repo.IncrementImageReplies(threadID); err != nil {
				s.logger.Warnw("Failed to bump image reply counter",
					"thread_id", threadID,
					"error", err,
				)
			}
		}
	}

	if err := s.authSvc.Record(content.ID, imageID, passwordHash); err != nil {
		return nil, err
	}

	s.invalidateIndexCache(b.Path)

	return result, nil
}

func (s *service) GetThreadIndex(ctx context.Context, boardPath string, page int) ([]*Content, error) {
	if page < 1 {
		page = 1
	}

	cacheKey := fmt.Sprintf("threads:%s:page:%d", boardPath, page)
	if s.redisP != nil {
		cached, err := s.redisP.Get(ctx, cacheKey).Result()
		if err == nil && cached != "" {
			var threads []*Content
			if json.Unmarshal([]byte(cached), &threads) == nil {
				return threads, nil
			}
		}
	}

	b, err := s.boardSvc.GetBoardByPath(boardPath)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	threads, err := s.repo.GetThreadIndex(b, page, indexPageSize, indexQuoteLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread index: %w", err)
	}

	if s.redisP != nil && len(threads) > 0 {
		if data, err := json.Marshal(threads); err == nil {
			s.redisP.SetEX(ctx, cacheKey, data, cacheTTL)
		}
	}

	return threads, nil
}

func (s *service) GetThread(ctx context.Context, boardPath string, id uint64) (*Content, error) {
	return s.repo.GetThread(boardPath, id)
}

func (s *service) GetQuotedReplies(threadID uint64, limit int) ([]*Content, error) {
	return s.repo.GetQuotedReplies(threadID, limit)
}

func (s *service) DeleteContent(ctx context.Context, boardPath string, ids []uint64, passwordHash string) (int64, error) {
	count, err := s.repo.DeleteContent(boardPath, ids, passwordHash)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.invalidateIndexCache(boardPath)
		s.logger.Infow("Deleted content", "board", boardPath, "count", count)
	}
	return count, nil
}

func (s *service) DeleteImagesOnly(ctx context.Context, boardPath string, ids []uint64, passwordHash string) (int64, error) {
	count, err := s.repo.DeleteImagesOnly(boardPath, ids, passwordHash)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.invalidateIndexCache(boardPath)
		s.logger.Infow("Stripped images", "board", boardPath, "count", count)
	}
	return count, nil
}

func (s *service) invalidateIndexCache(boardPath string) {
	if s.redisP == nil {
		return
	}
	ctx := context.Background()
	pattern := fmt.Sprintf("threads:%s:page:*", boardPath)
	var cursor uint64
	for {
		keys, cur, err := s.redisP.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			s.logger.Warnw("Redis scan failed during cache invalidation", "error", err, "pattern", pattern)
			return
		}
		if len(keys) > 0 {
			if _, err := s.redisP.Del(ctx, keys...).Result(); err != nil {
				s.logger.Warnw("Failed to delete cache keys", "error", err, "keys", keys)
			}
		}
		if cur == 0 {
			break
		}
		cursor = cur
	}
}

func fileMeta(file *UploadedFile) *validation.FileMeta {
	if file == nil {
		return nil
	}
	return &validation.FileMeta{
		Filename: file.Filename,
		Size:     int64(len(file.Data)),
	}
}
