package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"testing"

	"qpgen_backend/internal/config"
	"qpgen_backend/internal/model"
	"qpgen_backend/internal/repository"
	"qpgen_backend/internal/testutil"
	"qpgen_backend/internal/util"

	"gorm.io/gorm"
)

// countingSource 记录 Parse 的调用次数，用来验证解析只发生一次
type countingSource struct {
	inner SectionSource
	calls int
}

func (s *countingSource) Parse(ctx context.Context, title string, r io.Reader) ([]model.Section, error) {
	s.calls++
	return s.inner.Parse(ctx, title, r)
}

func localMaterialService(t *testing.T, tx *gorm.DB) (*MaterialService, *countingSource) {
	t.Helper()
	storage := &StorageService{Provider: &LocalStorageProvider{
		Config: &config.StorageConfig{LocalPath: t.TempDir()},
	}}
	source := &countingSource{inner: NewMarkdownSectionSource()}
	svc := NewMaterialService(
		repository.NewMaterialRepository(tx),
		repository.NewCourseRepository(tx),
		storage,
		source,
	)
	return svc, source
}

func seedCourse(t *testing.T, tx *gorm.DB, code string) *model.Course {
	t.Helper()
	course := &model.Course{Code: code, Name: "Operating Systems", Program: "CSE", Semester: 5}
	if err := tx.Create(course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return course
}

func uploadedFile(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form back: %v", err)
	}
	return form.File["file"][0]
}

func TestUploadThenEnsureSectionsParsesOnce(t *testing.T) {
	tx := testutil.Tx(t)
	svc, source := localMaterialService(t, tx)
	course := seedCourse(t, tx, "CS501-PARSE")

	fh := uploadedFile(t, "os-notes.md",
		"# Scheduling\nRound robin rotates the ready queue on a fixed quantum.\n\n"+
			"## Deadlock\nAll four Coffman conditions must hold simultaneously.\n")

	material, err := svc.Upload(context.Background(), course.ID, 2, "", fh, 7)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if material.Title != "os-notes" {
		t.Errorf("title = %q, want derived from the file name", material.Title)
	}
	if material.ContentType != util.MimeMarkdown {
		t.Errorf("content type = %q, want inferred markdown", material.ContentType)
	}
	if material.Parsed {
		t.Error("upload must not parse eagerly")
	}

	sections, err := svc.EnsureSections(context.Background(), material.ID)
	if err != nil {
		t.Fatalf("first EnsureSections: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if source.calls != 1 {
		t.Fatalf("source called %d times, want 1", source.calls)
	}

	again, err := svc.EnsureSections(context.Background(), material.ID)
	if err != nil {
		t.Fatalf("second EnsureSections: %v", err)
	}
	if len(again) != 2 {
		t.Errorf("cached read returned %d sections, want 2", len(again))
	}
	// 第二次必须读缓存，不允许再碰解析器
	if source.calls != 1 {
		t.Errorf("source called %d times after cached read, want still 1", source.calls)
	}

	var reloaded model.Material
	if err := tx.First(&reloaded, material.ID).Error; err != nil {
		t.Fatalf("reload material: %v", err)
	}
	if !reloaded.Parsed || reloaded.SectionCount != 2 || reloaded.ParsedAt == nil {
		t.Errorf("material after parse: parsed=%v count=%d parsedAt=%v",
			reloaded.Parsed, reloaded.SectionCount, reloaded.ParsedAt)
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	tx := testutil.Tx(t)
	svc, _ := localMaterialService(t, tx)
	course := seedCourse(t, tx, "CS501-EXT")

	fh := uploadedFile(t, "slides.pptx", "binary-ish content")
	_, err := svc.Upload(context.Background(), course.ID, 1, "", fh, 7)
	if !errors.Is(err, util.ErrUnsupportedFileType) {
		t.Fatalf("want ErrUnsupportedFileType, got %v", err)
	}
}

func TestUploadUnknownCourse(t *testing.T) {
	tx := testutil.Tx(t)
	svc, _ := localMaterialService(t, tx)

	fh := uploadedFile(t, "notes.txt", "plain text body")
	_, err := svc.Upload(context.Background(), 999999, 1, "", fh, 7)
	if !errors.Is(err, util.ErrCourseNotFound) {
		t.Fatalf("want ErrCourseNotFound, got %v", err)
	}
}
