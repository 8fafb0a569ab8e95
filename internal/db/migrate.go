package db

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrMigrationChecksum means a previously applied script no longer matches
// the content recorded in the ledger. The migration history can't be
// trusted, so startup must be refused.
var ErrMigrationChecksum = errors.New("migration checksum mismatch")

// SchemaMigration is the ledger row recorded for every applied script.
type SchemaMigration struct {
	ID        uint64    `gorm:"primaryKey"`
	Filename  string    `gorm:"unique;not null"`
	Checksum  string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// Migrate applies every .sql script under dir in lexical order, each inside
// its own transaction, and records filename+checksum in the ledger.
// Already-applied scripts are skipped after their checksum is re-verified.
func Migrate(db *gorm.DB, dir string, logger *zap.Logger) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create migration ledger: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migration dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		sum := sha256.Sum256(content)
		checksum := hex.EncodeToString(sum[:])

		var recorded SchemaMigration
		err = db.Where("filename = ?", name).First(&recorded).Error
		if err == nil {
			if recorded.Checksum != checksum {
				logger.Error("Migration script changed after being applied",
					zap.String("filename", name),
					zap.String("recorded", recorded.Checksum),
					zap.String("current", checksum),
				)
				return fmt.Errorf("%w: %s", ErrMigrationChecksum, name)
			}
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to query migration ledger: %w", err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			for _, stmt := range splitStatements(string(content)) {
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("statement failed in %s: %w", name, err)
				}
			}
			return tx.Create(&SchemaMigration{
				Filename:  name,
				Checksum:  checksum,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return err
		}

		logger.Info("Applied migration", zap.String("filename", name))
	}

	return nil
}

// splitStatements breaks a script on statement-terminating semicolons. Good
// enough for plain DDL; scripts must not contain procedural bodies.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
