package repository

import (
	"context"
	"fmt"
	"smartform_backend/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const submissionCountTTL = 5 * time.Minute

type SubmissionRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewSubmissionRepository(db *gorm.DB, rdb *redis.Client) *SubmissionRepository {
	return &SubmissionRepository{DB: db, Redis: rdb}
}

func (r *SubmissionRepository) Create(sub *model.Submission) error {
	if err := r.DB.Create(sub).Error; err != nil {
		return err
	}
	// 新提交后失效计数缓存，读方总是重新取整个快照
	if r.Redis != nil {
		r.Redis.Del(context.Background(), r.countKey(sub.FormID))
	}
	return nil
}

func (r *SubmissionRepository) FindByID(id string) (*model.Submission, error) {
	var sub model.Submission
	err := r.DB.First(&sub, "id = ?", id).Error
	return &sub, err
}

// ListByForm 返回某表单的全部提交，按提交时间排序
func (r *SubmissionRepository) ListByForm(formID string, ascending bool) ([]model.Submission, error) {
	var subs []model.Submission
	order := "submitted_at desc"
	if ascending {
		order = "submitted_at asc"
	}
	err := r.DB.Where("form_id = ?", formID).Order(order).Find(&subs).Error
	return subs, err
}

func (r *SubmissionRepository) CountByForm(formID string) (int64, error) {
	ctx := context.Background()
	if r.Redis != nil {
		if cached, err := r.Redis.Get(ctx, r.countKey(formID)).Int64(); err == nil {
			return cached, nil
		}
	}

	var count int64
	if err := r.DB.Model(&model.Submission{}).Where("form_id = ?", formID).Count(&count).Error; err != nil {
		return 0, err
	}

	if r.Redis != nil {
		r.Redis.Set(ctx, r.countKey(formID), count, submissionCountTTL)
	}
	return count, nil
}

func (r *SubmissionRepository) countKey(formID string) string {
	return fmt.Sprintf("smartform:submission_count:%s", formID)
}
