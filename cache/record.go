package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

// CompileRecord is one cached compile outcome, keyed by a hash of the
// source text plus the target that produced it.
type CompileRecord struct {
	Hash       string `gorm:"primaryKey"`
	Target     string `gorm:"primaryKey"`
	OutputCode string
	Succeeded  bool
	FailureLog string
	CreatedAt  time.Time
}

// Store is a gorm-backed compile cache.
type Store struct {
	db *gorm.DB
}

// NewStore opens (and migrates) a compile-record store on top of db.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&CompileRecord{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// HashSource returns the hex SHA-256 of the source text; Lookup and Put pair
// it with the target to form the cache key.
func HashSource(sourceText string) string {
	sum := sha256.Sum256([]byte(sourceText))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached record for the given source hash and target, if
// one exists.
func (s *Store) Lookup(hash, target string) (*CompileRecord, bool, error) {
	var rec CompileRecord
	err := s.db.Where("hash = ? AND target = ?", hash, target).First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

// Put inserts or replaces the cached record for hash/target.
func (s *Store) Put(rec CompileRecord) error {
	rec.CreatedAt = time.Now()
	return s.db.Save(&rec).Error
}
