package image

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"onchan/internal/providers/storage"
)

var (
	ErrUnsupportedType = errors.New("file extension not allowed")
	ErrTooLarge        = errors.New("file exceeds size limit")
	ErrEmptyFile       = errors.New("empty file")
)

var allowedExtensions = map[string]bool{
	".bmp":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".tiff": true,
	".webm": true,
}

const thumbWidth = 250

type Service interface {
	// Attach ingests upload bytes for a freshly written content row:
	// checksum, dimensions, stored filename, thumbnail, image row.
	Attach(contentID uint64, threadID *uint64, data []byte, origFilename string) (*Image, error)
	GetByContentID(contentID uint64) (*Image, error)
}

type service struct {
	repo    Repository
	store   storage.FileStore
	maxSize int64
	logger  *zap.SugaredLogger
}

func NewService(repo Repository, store storage.FileStore, maxSize int64, logger *zap.Logger) Service {
	return &service{
		repo:    repo,
		store:   store,
		maxSize: maxSize,
		logger:  logger.Sugar(),
	}
}

func (s *service) Attach(contentID uint64, threadID *uint64, data []byte, origFilename string) (*Image, error) {
	ext := strings.ToLower(filepath.Ext(origFilename))
	if !allowedExtensions[ext] {
		return nil, ErrUnsupportedType
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) >= s.maxSize {
		return nil, ErrTooLarge
	}

	sum := sha512.Sum512(data)
	checksum := hex.EncodeToString(sum[:])

	filename := uuid.New().String() + ext

	width, height := decodeDimensions(data)

	if err := s.store.Save(filename, data); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	if err := s.saveThumbnail(filename, ext, data); err != nil {
		// A broken thumbnail is cosmetic, the full image is already stored.
		s.logger.Warnw("Failed to generate thumbnail", "filename", filename, "error", err)
	}

	img := &Image{
		ContentID:    &contentID,
		Filename:     filename,
		OrigFilename: origFilename,
		Size:         int64(len(data)),
		Width:        width,
		Height:       height,
		Checksum:     checksum,
		Version:      1,
		URL:          s.store.URL(filename),
		ThreadID:     threadID,
	}
	if err := s.repo.Create(img); err != nil {
		return nil, fmt.Errorf("failed to create image row: %w", err)
	}

	s.logger.Infow("Attached image",
		"content_id", contentID,
		"filename", filename,
		"orig_filename", origFilename,
		"bytes", len(data),
	)

	return img, nil
}

func (s *service) GetByContentID(contentID uint64) (*Image, error) {
	return s.repo.GetByContentID(contentID)
}

// decodeDimensions reads pixel size from the header. Non-raster uploads
// (.webm) come back 0x0.
func decodeDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func (s *service) saveThumbnail(filename, ext string, data []byte) error {
	if ext == ".webm" {
		return nil
	}

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}

	thumb := src
	if src.Bounds().Dx() > thumbWidth {
		thumb = imaging.Resize(src, thumbWidth, 0, imaging.Lanczos)
	}

	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format); err != nil {
		return err
	}

	return s.store.Save(ThumbKey(filename), buf.Bytes())
}

// ThumbKey maps a stored filename to its thumbnail key.
func ThumbKey(filename string) string {
	return "thumb/" + filename
}
