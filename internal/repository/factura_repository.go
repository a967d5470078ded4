package repository

import (
	"context"

	"facturas_api/internal/models"
	"facturas_api/internal/storage"

	"gorm.io/gorm"
)

type FacturaRepository interface {
	FindAll(ctx context.Context) ([]models.Factura, error)
	FindByID(ctx context.Context, id uint) (*models.Factura, error)
	Create(ctx context.Context, factura *models.Factura) error
	// Update 只寫入 fields 中的欄位，記錄不存在時回傳 gorm.ErrRecordNotFound
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type facturaRepository struct {
	db *storage.Database
}

func NewFacturaRepository(db *storage.Database) FacturaRepository {
	return &facturaRepository{db: db}
}

// FindAll 依 id 順序查詢所有發票
func (r *facturaRepository) FindAll(ctx context.Context) ([]models.Factura, error) {
	facturas := []models.Factura{}
	err := r.db.WithContext(ctx).Order("id asc").Find(&facturas).Error
	return facturas, err
}

func (r *facturaRepository) FindByID(ctx context.Context, id uint) (*models.Factura, error) {
	var factura models.Factura
	err := r.db.WithContext(ctx).First(&factura, id).Error
	if err != nil {
		return nil, err
	}
	return &factura, nil
}

func (r *facturaRepository) Create(ctx context.Context, factura *models.Factura) error {
	return r.db.WithContext(ctx).Create(factura).Error
}

func (r *facturaRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	// MySQL 的 affected rows 只計算實際變更的列，所以先確認記錄存在
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Factura{}, id).Error; err != nil {
			return err
		}
		return tx.Model(&models.Factura{ID: id}).Updates(fields).Error
	})
}

func (r *facturaRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Factura{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
