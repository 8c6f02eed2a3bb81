package repository

import (
	"encoding/json"
	"testing"
	"time"

	"qpgen_backend/internal/model"
	"qpgen_backend/internal/testutil"

	"gorm.io/gorm"
)

func seedJob(t *testing.T, tx *gorm.DB, status model.JobStatus) *model.GenerationJob {
	t.Helper()
	job := &model.GenerationJob{
		MaterialID:     1,
		CourseID:       1,
		Unit:           1,
		Quota:          json.RawMessage(`{"difficulty":{"EASY":2},"bloomLevel":{"REMEMBER":2},"questionType":{"MCQ":2}}`),
		Status:         status,
		RequestedTotal: 2,
	}
	if err := tx.Create(job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func reloadJob(t *testing.T, tx *gorm.DB, id string) *model.GenerationJob {
	t.Helper()
	var job model.GenerationJob
	if err := tx.First(&job, "id = ?", id).Error; err != nil {
		t.Fatalf("reload job %s: %v", id, err)
	}
	return &job
}

func TestMarkProcessingClaimsOnce(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewGenerationJobRepository(tx)
	job := seedJob(t, tx, model.JobQueued)

	claimed, err := repo.MarkProcessing(job.ID)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if !claimed {
		t.Fatal("queued job must be claimable")
	}

	got := reloadJob(t, tx, job.ID)
	if got.Status != model.JobProcessing || got.Stage != model.StageParsing {
		t.Errorf("after claim: status=%s stage=%s, want PROCESSING/PARSING", got.Status, got.Stage)
	}
	if got.StartedAt == nil {
		t.Error("claim must record the start time")
	}

	claimed, err = repo.MarkProcessing(job.ID)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Error("a job already in PROCESSING must not be claimed again")
	}
}

func TestUpdateStageProgressIsMonotonic(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewGenerationJobRepository(tx)
	job := seedJob(t, tx, model.JobQueued)
	if _, err := repo.MarkProcessing(job.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := repo.UpdateStageProgress(job.ID, model.StageGenerating, 60); err != nil {
		t.Fatalf("advance to 60: %v", err)
	}
	// 迟到的低进度写入不得回退
	if err := repo.UpdateStageProgress(job.ID, model.StageGenerating, 40); err != nil {
		t.Fatalf("late write: %v", err)
	}
	if got := reloadJob(t, tx, job.ID); got.Progress != 60 {
		t.Errorf("progress = %d, want 60 after a lower late write", got.Progress)
	}

	if err := repo.UpdateStageProgress(job.ID, model.StagePersisting, 90); err != nil {
		t.Fatalf("advance to 90: %v", err)
	}
	got := reloadJob(t, tx, job.ID)
	if got.Progress != 90 || got.Stage != model.StagePersisting {
		t.Errorf("progress=%d stage=%s, want 90/PERSISTING", got.Progress, got.Stage)
	}
}

func TestUpdateStageProgressIgnoresNonProcessingJobs(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewGenerationJobRepository(tx)
	job := seedJob(t, tx, model.JobQueued)

	if err := repo.UpdateStageProgress(job.ID, model.StageGenerating, 75); err != nil {
		t.Fatalf("update on queued job: %v", err)
	}
	if got := reloadJob(t, tx, job.ID); got.Progress != 0 || got.Stage != "" {
		t.Errorf("queued job mutated: progress=%d stage=%q", got.Progress, got.Stage)
	}
}

func TestFinishIfWritesTerminalStateOnce(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewGenerationJobRepository(tx)
	job := seedJob(t, tx, model.JobQueued)
	if _, err := repo.MarkProcessing(job.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	done, err := repo.FinishIf(job.ID, model.JobProcessing, model.JobCompleted, map[string]interface{}{
		"generated_count": 2,
		"warning":         "quota shortfall: 1 question(s) not scheduled",
	})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !done {
		t.Fatal("processing job must be finishable")
	}

	got := reloadJob(t, tx, job.ID)
	if got.Status != model.JobCompleted || got.Progress != 100 {
		t.Errorf("status=%s progress=%d, want COMPLETED/100", got.Status, got.Progress)
	}
	if got.FinishedAt == nil {
		t.Error("terminal write must record the finish time")
	}
	if got.GeneratedCount != 2 || got.Warning == "" {
		t.Errorf("extra columns not applied: generated=%d warning=%q", got.GeneratedCount, got.Warning)
	}

	// 第二次终态写入必须落空，COMPLETED 不会被改写成 FAILED
	done, err = repo.FinishIf(job.ID, model.JobProcessing, model.JobFailed, map[string]interface{}{
		"error_message": "late failure",
	})
	if err != nil {
		t.Fatalf("second finish: %v", err)
	}
	if done {
		t.Error("a finished job must not accept another terminal state")
	}
	if got := reloadJob(t, tx, job.ID); got.Status != model.JobCompleted {
		t.Errorf("status = %s, want COMPLETED to stick", got.Status)
	}
}

func TestFailStaleMarksOnlyOldProcessingJobs(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewGenerationJobRepository(tx)

	stale := seedJob(t, tx, model.JobQueued)
	if _, err := repo.MarkProcessing(stale.ID); err != nil {
		t.Fatalf("claim stale: %v", err)
	}
	fresh := seedJob(t, tx, model.JobQueued)
	if _, err := repo.MarkProcessing(fresh.ID); err != nil {
		t.Fatalf("claim fresh: %v", err)
	}
	queued := seedJob(t, tx, model.JobQueued)

	// 把第一个任务的心跳时间拨回一小时，模拟进程崩溃残留
	if err := tx.Model(&model.GenerationJob{}).
		Where("id = ?", stale.ID).
		UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	count, err := repo.FailStale(30 * time.Minute)
	if err != nil {
		t.Fatalf("fail stale: %v", err)
	}
	if count != 1 {
		t.Fatalf("marked %d jobs, want 1", count)
	}

	if got := reloadJob(t, tx, stale.ID); got.Status != model.JobFailed || got.ErrorMessage == "" {
		t.Errorf("stale job: status=%s error=%q, want FAILED with message", got.Status, got.ErrorMessage)
	}
	if got := reloadJob(t, tx, fresh.ID); got.Status != model.JobProcessing {
		t.Errorf("fresh job status = %s, want PROCESSING untouched", got.Status)
	}
	if got := reloadJob(t, tx, queued.ID); got.Status != model.JobQueued {
		t.Errorf("queued job status = %s, want QUEUED untouched", got.Status)
	}
}
