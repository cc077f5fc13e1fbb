package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldTraceID 追踪 ID 字段
	FieldTraceID = "traceId"

	// FieldUID 工作区 ID 字段
	FieldUID = "uid"

	// FieldKey 草稿键字段
	FieldKey = "key"

	// FieldSlug 草稿标识字段
	FieldSlug = "slug"

	// FieldStatus 保存状态字段
	FieldStatus = "status"
)
