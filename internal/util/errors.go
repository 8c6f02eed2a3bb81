package util

import "errors"

var (
	ErrEmailRegistered = errors.New("该邮箱已被注册")

	ErrCourseNotFound      = errors.New("course not found")
	ErrMaterialNotFound    = errors.New("material not found")
	ErrUnsupportedFileType = errors.New("unsupported material file type")

	ErrJobNotFound        = errors.New("generation job not found")
	ErrJobAlreadyRunning  = errors.New("a generation job is already running for this material and unit")
	ErrQuotaConfigInvalid = errors.New("invalid quota config")

	ErrQuestionNotFound = errors.New("question not found")
	ErrPatternNotFound  = errors.New("paper pattern not found")

	// 审批状态机：角色与当前阶段不匹配，或制品已到终态
	ErrInvalidTransition = errors.New("invalid transition")
	ErrRemarksTooShort   = errors.New("remarks must be at least 10 characters")

	ErrParseFailed       = errors.New("failed to parse material into sections")
	ErrGenerationTimeout = errors.New("generation request timed out")
	ErrMalformedOutput   = errors.New("generator returned no usable items")
	ErrUnknownBackend    = errors.New("unknown generator backend")
)
