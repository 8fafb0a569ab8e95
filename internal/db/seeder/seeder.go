package seeder

import (
	"onchan/internal/app/board"
	"onchan/internal/config"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Seeder struct {
	db     *gorm.DB
	cfg    *config.Config
	logger *zap.Logger
}

func NewSeeder(db *gorm.DB, cfg *config.Config, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Seeder) Seed() error {
	s.logger.Info("Running database seeders...")

	if err := s.seedBoards(); err != nil {
		return err
	}

	s.logger.Info("Database seeders completed successfully")
	return nil
}

// seedBoards provisions the statically configured boards. Existing boards
// are left untouched so limits recorded at first provisioning stay stable.
func (s *Seeder) seedBoards() error {
	created := 0
	for _, bc := range s.cfg.Boards {
		var count int64
		if err := s.db.Model(&board.Board{}).Where("path = ?", bc.Path).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		b := board.Board{
			Path:        bc.Path,
			Name:        bc.Name,
			Description: bc.Description,
			ThreadLimit: bc.ThreadLimit,
			ImageLimit:  bc.ImageLimit,
			BumpLimit:   bc.BumpLimit,
		}
		if err := s.db.Create(&b).Error; err != nil {
			return err
		}
		created++
	}

	if created > 0 {
		s.logger.Info("Seeded boards", zap.Int("count", created))
	} else {
		s.logger.Info("Boards already exist, skipping seed")
	}
	return nil
}
