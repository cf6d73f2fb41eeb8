package services

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/opscore/orderflow/internal/models"
)

// NumberingService issues sequential document numbers from the per-type
// scheme rows. Numbers are unique and monotonic per type and never reused,
// even when the consuming document is deleted later.
type NumberingService struct {
	db *gorm.DB
}

func NewNumberingService(db *gorm.DB) *NumberingService { return &NumberingService{db: db} }

// Allocate consumes the next number for docType in its own transaction.
func (s *NumberingService) Allocate(ctx context.Context, docType models.DocumentType) (string, error) {
	var number string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, txErr := s.AllocateTx(tx, docType)
		number = n
		return txErr
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

// AllocateTx consumes the next number inside an existing transaction, so a
// document write and its number draw commit or roll back together.
//
// The increment runs first: concurrent allocators serialize on the row lock
// the UPDATE takes, so no two of them can observe the same pre-increment
// value. The read that follows sees this transaction's own update and the
// consumed value is CurrentNumber - 1.
func (s *NumberingService) AllocateTx(tx *gorm.DB, docType models.DocumentType) (string, error) {
	res := tx.Model(&models.NumberingScheme{}).
		Where("document_type = ?", docType).
		UpdateColumn("current_number", gorm.Expr("current_number + 1"))
	if res.Error != nil {
		return "", fmt.Errorf("advance numbering for %s: %w", docType, res.Error)
	}
	if res.RowsAffected == 0 {
		return "", fmt.Errorf("%w: %s", ErrSchemeNotFound, docType)
	}
	var scheme models.NumberingScheme
	if err := tx.Where("document_type = ?", docType).First(&scheme).Error; err != nil {
		return "", fmt.Errorf("read numbering for %s: %w", docType, err)
	}
	return scheme.Prefix + strconv.FormatInt(scheme.CurrentNumber-1, 10), nil
}
