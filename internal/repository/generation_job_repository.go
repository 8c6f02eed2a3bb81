package repository

import (
	"time"

	"qpgen_backend/internal/model"

	"gorm.io/gorm"
)

type GenerationJobRepository struct {
	DB *gorm.DB
}

func NewGenerationJobRepository(db *gorm.DB) *GenerationJobRepository {
	return &GenerationJobRepository{DB: db}
}

func (r *GenerationJobRepository) Create(job *model.GenerationJob) error {
	return r.DB.Create(job).Error
}

func (r *GenerationJobRepository) FindByID(id string) (*model.GenerationJob, error) {
	var job model.GenerationJob
	err := r.DB.First(&job, "id = ?", id).Error
	return &job, err
}

func (r *GenerationJobRepository) List(courseID uint, status model.JobStatus, page, limit int) ([]model.GenerationJob, int64, error) {
	query := r.DB.Model(&model.GenerationJob{})
	if courseID > 0 {
		query = query.Where("course_id = ?", courseID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []model.GenerationJob
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&jobs).Error
	return jobs, total, err
}

// MarkProcessing 将任务从 QUEUED 置为 PROCESSING，返回是否抢占成功。
// WHERE 条件保证同一任务只会被一个 worker 启动。
func (r *GenerationJobRepository) MarkProcessing(id string) (bool, error) {
	now := time.Now()
	res := r.DB.Model(&model.GenerationJob{}).
		Where("id = ? AND status = ?", id, model.JobQueued).
		Updates(map[string]interface{}{
			"status":     model.JobProcessing,
			"stage":      model.StageParsing,
			"started_at": now,
		})
	return res.RowsAffected > 0, res.Error
}

// UpdateStageProgress 更新阶段并单调推进进度，GREATEST 防止并发回退
func (r *GenerationJobRepository) UpdateStageProgress(id string, stage model.JobStage, progress int) error {
	return r.DB.Model(&model.GenerationJob{}).
		Where("id = ? AND status = ?", id, model.JobProcessing).
		Updates(map[string]interface{}{
			"stage":    stage,
			"progress": gorm.Expr("GREATEST(progress, ?)", progress),
		}).Error
}

// FinishIf 仅当任务仍处于 from 状态时写入终态，保证终态只被写一次
func (r *GenerationJobRepository) FinishIf(id string, from, to model.JobStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	updates["finished_at"] = time.Now()
	if to == model.JobCompleted {
		updates["progress"] = 100
	}
	res := r.DB.Model(&model.GenerationJob{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// FailStale 将超过时限仍在 PROCESSING 的任务批量置为 FAILED，
// 用于进程崩溃后残留任务的兜底清理
func (r *GenerationJobRepository) FailStale(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := r.DB.Model(&model.GenerationJob{}).
		Where("status = ? AND updated_at < ?", model.JobProcessing, cutoff).
		Updates(map[string]interface{}{
			"status":        model.JobFailed,
			"error_message": "job exceeded processing deadline",
			"finished_at":   time.Now(),
		})
	return res.RowsAffected, res.Error
}
