package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"qpgen_backend/internal/config"
	"qpgen_backend/internal/model"
	"qpgen_backend/internal/repository"
	"qpgen_backend/internal/util"
	"qpgen_backend/pkg/logger"
	"qpgen_backend/pkg/monitoring"
	"qpgen_backend/pkg/tracing"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const jobLockTTL = 30 * time.Minute

// GenerationService 出题任务编排器。任务提交后异步执行，
// 状态机 QUEUED -> PROCESSING -> COMPLETED/FAILED，终态只写一次
type GenerationService struct {
	JobRepo      *repository.GenerationJobRepository
	QuestionRepo *repository.QuestionRepository
	MaterialSvc  *MaterialService
	Registry     *GeneratorRegistry
	Redis        *redis.Client

	cfgMu     sync.RWMutex
	Cfg       config.GenerationConfig
	aiTimeout time.Duration
}

func NewGenerationService(
	jobRepo *repository.GenerationJobRepository,
	questionRepo *repository.QuestionRepository,
	materialSvc *MaterialService,
	registry *GeneratorRegistry,
	redisClient *redis.Client,
	cfg *config.Config,
) *GenerationService {
	return &GenerationService{
		JobRepo:      jobRepo,
		QuestionRepo: questionRepo,
		MaterialSvc:  materialSvc,
		Registry:     registry,
		Redis:        redisClient,
		Cfg:          cfg.Generation,
		aiTimeout:    time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	}
}

// Reconfigure 应用热更新后的生成参数并切换出题后端。
// 已经在跑的任务用的是启动时取的快照，不受影响
func (s *GenerationService) Reconfigure(cfg *config.Config) {
	if err := s.Registry.SetActive(cfg.AI.Backend); err != nil {
		logger.Log.Warn("keeping current generation backend", zap.Error(err))
	}
	s.cfgMu.Lock()
	s.Cfg = cfg.Generation
	s.aiTimeout = time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	s.cfgMu.Unlock()
}

func (s *GenerationService) settings() (config.GenerationConfig, time.Duration) {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.Cfg, s.aiTimeout
}

type SubmitJobRequest struct {
	MaterialID uint              `json:"materialId" binding:"required"`
	Unit       int               `json:"unit"`
	Quota      model.QuotaConfig `json:"quota" binding:"required"`
}

// Submit 校验材料与配额后落一条 QUEUED 任务并异步执行。
// 同一材料同一单元同时只允许一个任务，靠 redis SetNX 去重
func (s *GenerationService) Submit(ctx context.Context, req SubmitJobRequest, userID uint) (*model.GenerationJob, error) {
	material, err := s.MaterialSvc.Get(req.MaterialID)
	if err != nil {
		return nil, err
	}

	genCfg, _ := s.settings()
	if err := ValidateQuota(req.Quota, genCfg.MaxQuotaTotal); err != nil {
		return nil, err
	}

	unit := req.Unit
	if unit <= 0 {
		unit = material.Unit
	}

	quotaJSON, err := json.Marshal(req.Quota)
	if err != nil {
		return nil, err
	}

	job := &model.GenerationJob{
		MaterialID:     material.ID,
		CourseID:       material.CourseID,
		Unit:           unit,
		Quota:          quotaJSON,
		Status:         model.JobQueued,
		RequestedTotal: req.Quota.Total(),
		CreatedByID:    userID,
	}
	job.ID = model.GenerateUUID()

	acquired, err := s.acquireLock(ctx, material.ID, unit, job.ID)
	if err != nil {
		// redis 不可用时放弃去重，任务照常执行
		logger.Log.Warn("generation lock unavailable", zap.Error(err))
	} else if !acquired {
		return nil, util.ErrJobAlreadyRunning
	}

	if err := s.JobRepo.Create(job); err != nil {
		s.releaseLock(material.ID, unit)
		return nil, err
	}

	go s.run(job.ID)
	return job, nil
}

func (s *GenerationService) Status(id string) (*model.GenerationJob, error) {
	job, err := s.JobRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *GenerationService) List(courseID uint, status model.JobStatus, page, limit int) ([]model.GenerationJob, int64, error) {
	return s.JobRepo.List(courseID, status, page, limit)
}

// FailStaleJobs 由后台定时任务调用，清理进程重启后残留的 PROCESSING 任务
func (s *GenerationService) FailStaleJobs() (int64, error) {
	genCfg, _ := s.settings()
	after := time.Duration(genCfg.StaleAfterMinutes) * time.Minute
	if after <= 0 {
		after = 30 * time.Minute
	}
	return s.JobRepo.FailStale(after)
}

func (s *GenerationService) run(jobID string) {
	ctx, span := tracing.Tracer.Start(context.Background(), "generation.job")
	defer span.End()

	job, err := s.JobRepo.FindByID(jobID)
	if err != nil {
		logger.Log.Error("generation job missing at start", zap.String("jobId", jobID), zap.Error(err))
		return
	}

	defer s.releaseLock(job.MaterialID, job.Unit)
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("generation job panicked",
				zap.String("jobId", jobID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			s.markFailed(jobID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	started, err := s.JobRepo.MarkProcessing(jobID)
	if err != nil {
		logger.Log.Error("cannot mark job processing", zap.String("jobId", jobID), zap.Error(err))
		return
	}
	if !started {
		return
	}

	monitoring.ActiveGenerationJobs.Inc()
	defer monitoring.ActiveGenerationJobs.Dec()

	logger.Log.Info("generation job started",
		zap.String("jobId", jobID),
		zap.Uint("materialId", job.MaterialID),
		zap.Int("unit", job.Unit),
		zap.Int("requested", job.RequestedTotal))

	_ = s.JobRepo.UpdateStageProgress(jobID, model.StageParsing, 5)
	sections, err := s.MaterialSvc.EnsureSections(ctx, job.MaterialID)
	if err != nil {
		s.markFailed(jobID, fmt.Sprintf("parse material: %v", err))
		return
	}

	_ = s.JobRepo.UpdateStageProgress(jobID, model.StagePlanning, 10)
	var quota model.QuotaConfig
	if err := json.Unmarshal(job.Quota, &quota); err != nil {
		s.markFailed(jobID, fmt.Sprintf("decode quota: %v", err))
		return
	}
	// 生成参数取一次快照，任务执行期间的热更新对本任务不生效
	genCfg, _ := s.settings()
	requests, shortfall := PlanRequests(sections, quota, genCfg.BatchSize)

	results := make([][]model.Question, len(requests))
	fallbackCounts := make([]int, len(requests))
	discardCounts := make([]int, len(requests))

	if len(requests) > 0 {
		var done int64
		var g errgroup.Group
		workers := genCfg.Workers
		if workers <= 0 {
			workers = 1
		}
		g.SetLimit(workers)

		for i, req := range requests {
			i, req := i, req
			g.Go(func() error {
				qs, fb, discarded := s.generateOne(ctx, req)
				results[i] = qs
				fallbackCounts[i] = fb
				discardCounts[i] = discarded
				n := atomic.AddInt64(&done, 1)
				progress := 10 + int(80*n/int64(len(requests)))
				_ = s.JobRepo.UpdateStageProgress(jobID, model.StageGenerating, progress)
				return nil
			})
		}
		_ = g.Wait()
	}

	_ = s.JobRepo.UpdateStageProgress(jobID, model.StagePersisting, 92)

	var all []model.Question
	fallbackTotal := 0
	discardedTotal := 0
	for i := range results {
		fallbackTotal += fallbackCounts[i]
		discardedTotal += discardCounts[i]
		for _, q := range results[i] {
			q.CourseID = job.CourseID
			q.Unit = job.Unit
			q.MaterialID = job.MaterialID
			q.GenerationJobID = job.ID
			q.CreatedByID = job.CreatedByID
			q.Status = model.StatusCreatedByCC
			all = append(all, q)
		}
	}

	if err := s.QuestionRepo.CreateBatch(all); err != nil {
		// 章节解析结果已落库，重试任务不会重复解析
		s.markFailed(jobID, fmt.Sprintf("persist questions: %v", err))
		return
	}

	monitoring.GeneratedQuestions.WithLabelValues("generated").Add(float64(len(all) - fallbackTotal))
	monitoring.GeneratedQuestions.WithLabelValues("fallback").Add(float64(fallbackTotal))

	warning := buildJobWarning(shortfall, job.RequestedTotal, len(all), discardedTotal)
	finished, err := s.JobRepo.FinishIf(jobID, model.JobProcessing, model.JobCompleted, map[string]interface{}{
		"generated_count": len(all),
		"fallback_count":  fallbackTotal,
		"warning":         warning,
	})
	if err != nil {
		logger.Log.Error("cannot complete job", zap.String("jobId", jobID), zap.Error(err))
		return
	}
	if !finished {
		logger.Log.Warn("job reached terminal state elsewhere, results kept", zap.String("jobId", jobID))
		return
	}

	logger.Log.Info("generation job completed",
		zap.String("jobId", jobID),
		zap.Int("persisted", len(all)),
		zap.Int("fallback", fallbackTotal),
		zap.String("warning", warning))
}

// generateOne 执行一条生成请求，任何失败都以占位题兜底，
// 返回题目、占位数量和被丢弃的畸形条目数
func (s *GenerationService) generateOne(ctx context.Context, req GenerationRequest) ([]model.Question, int, int) {
	ctx, span := tracing.Tracer.Start(ctx, "generation.request")
	defer span.End()

	raw, err := s.completeWithTimeout(ctx, buildGenerationPrompt(req))
	if err != nil {
		logger.Log.Warn("generation request failed, falling back",
			zap.String("section", req.Section.Title),
			zap.String("type", string(req.QuestionType)),
			zap.Error(err))
		return FallbackQuestions(req), req.Count, 0
	}

	questions, discarded, err := NormalizeResponse(raw, req)
	if err != nil {
		logger.Log.Warn("generation output unusable, falling back",
			zap.String("section", req.Section.Title),
			zap.Error(err))
		return FallbackQuestions(req), req.Count, discarded
	}
	if discarded > 0 {
		logger.Log.Warn("discarded malformed entries",
			zap.String("section", req.Section.Title),
			zap.Int("discarded", discarded))
	}
	return questions, 0, discarded
}

// completeWithTimeout 让生成调用和截止时间赛跑，超时后迟到的结果直接丢弃
func (s *GenerationService) completeWithTimeout(ctx context.Context, prompt string) (string, error) {
	_, timeout := s.settings()
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type completion struct {
		text string
		err  error
	}
	ch := make(chan completion, 1)
	go func() {
		text, err := s.Registry.Active().Complete(ctx, prompt)
		ch <- completion{text, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return "", util.ErrGenerationTimeout
			}
			return "", res.err
		}
		return res.text, nil
	case <-ctx.Done():
		return "", util.ErrGenerationTimeout
	}
}

func (s *GenerationService) markFailed(jobID, reason string) {
	if len(reason) > 500 {
		reason = reason[:500]
	}
	finished, err := s.JobRepo.FinishIf(jobID, model.JobProcessing, model.JobFailed, map[string]interface{}{
		"error_message": reason,
	})
	if err != nil {
		logger.Log.Error("cannot mark job failed", zap.String("jobId", jobID), zap.Error(err))
		return
	}
	if finished {
		logger.Log.Warn("generation job failed", zap.String("jobId", jobID), zap.String("reason", reason))
	}
}

func buildJobWarning(shortfall QuotaShortfall, requested, persisted, discarded int) string {
	var parts []string
	if !shortfall.Empty() {
		parts = append(parts, shortfall.Warning())
	}
	if discarded > 0 {
		parts = append(parts, fmt.Sprintf("%d malformed entries discarded", discarded))
	}
	if persisted < requested {
		parts = append(parts, fmt.Sprintf("delivered %d of %d requested", persisted, requested))
	}
	warning := strings.Join(parts, "; ")
	if len(warning) > 500 {
		warning = warning[:500]
	}
	return warning
}

func jobLockKey(materialID uint, unit int) string {
	return fmt.Sprintf("genjob:lock:%d:%d", materialID, unit)
}

func (s *GenerationService) acquireLock(ctx context.Context, materialID uint, unit int, jobID string) (bool, error) {
	if s.Redis == nil {
		return true, nil
	}
	return s.Redis.SetNX(ctx, jobLockKey(materialID, unit), jobID, jobLockTTL).Result()
}

func (s *GenerationService) releaseLock(materialID uint, unit int) {
	if s.Redis == nil {
		return
	}
	s.Redis.Del(context.Background(), jobLockKey(materialID, unit))
}
