package repository

import (
	"smartform_backend/internal/model"

	"gorm.io/gorm"
)

type FormRepository struct {
	DB *gorm.DB
}

func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{DB: db}
}

func (r *FormRepository) Create(form *model.Form) error {
	return r.DB.Create(form).Error
}

// FindByID 加载表单及其有序问题列表
func (r *FormRepository) FindByID(id string) (*model.Form, error) {
	var form model.Form
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("`order` asc, created_at asc")
	}).First(&form, "id = ?", id).Error
	return &form, err
}

func (r *FormRepository) FindBySlug(slug string) (*model.Form, error) {
	var form model.Form
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("`order` asc, created_at asc")
	}).First(&form, "share_slug = ?", slug).Error
	return &form, err
}

func (r *FormRepository) ListByOwner(ownerID uint, page, limit int) ([]model.Form, int64, error) {
	var forms []model.Form
	var total int64
	query := r.DB.Model(&model.Form{}).Where("owner_id = ?", ownerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&forms).Error
	return forms, total, err
}

func (r *FormRepository) Update(form *model.Form) error {
	return r.DB.Save(form).Error
}

func (r *FormRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("form_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Form{}, "id = ?", id).Error
	})
}

func (r *FormRepository) CreateQuestion(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *FormRepository) DeleteQuestion(id string) error {
	return r.DB.Delete(&model.Question{}, "id = ?", id).Error
}
