package util

const DateFormat = "2006-01-02"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeHTML = "text/html; charset=utf-8"
)

// 积分规则
const (
	LessonBasePoints    = 10
	CourseCompletePoint = 100
	PointsPerLevel      = 200
)
