package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 课程资料上传相关常量
const (
	MimeText        = "text/plain"
	MimeMarkdown    = "text/markdown"
	MimePDF         = "application/pdf"
	MimeOctetStream = "application/octet-stream"
)

var (
	AllowedMaterialExtensions = []string{".txt", ".md", ".markdown", ".text"}
)
