package code

// 成功码
var (
	Success         = NewSuss(200, lang{"Success", "成功"})
	SuccessCreate   = NewSuss(201, lang{"Created", "创建成功"})
	SuccessUpdate   = NewSuss(202, lang{"Updated", "更新成功"})
	SuccessDelete   = NewSuss(203, lang{"Deleted", "删除成功"})
	SuccessNoUpdate = NewSuss(204, lang{"No update needed", "无需更新"})
)

// 通用错误码
var (
	Failed               = NewError(10000, lang{"Request failed", "请求失败"})
	ErrorServerInternal  = NewError(10001, lang{"Server internal error", "服务内部错误"})
	ErrorInvalidParams   = NewError(10002, lang{"Invalid request parameters", "入参错误"})
	ErrorNotFoundAPI     = NewError(10003, lang{"API not found", "接口不存在"})
	ErrorTooManyRequests = NewError(10004, lang{"Too many requests", "请求过多"})
	ErrorRequestTimeout  = NewError(10005, lang{"Request timed out", "请求超时"})
)

// 鉴权错误码
var (
	ErrorInvalidAuthToken     = NewError(20001, lang{"Auth token is invalid", "凭证无效"})
	ErrorNotUserAuthToken     = NewError(20002, lang{"Session token is missing", "会话凭证缺失"})
	ErrorInvalidUserAuthToken = NewError(20003, lang{"Session token is invalid or expired", "会话凭证无效或已过期"})
	ErrorTokenGenerate        = NewError(20004, lang{"Session token generation failed", "会话凭证生成失败"})
	ErrorPasswordNotValid     = NewError(20005, lang{"Password is not valid", "密码错误"})
	ErrorClientNotAllowed     = NewError(20006, lang{"Client is not allowed", "客户端不在允许列表中"})
)

// 草稿错误码
var (
	ErrorDraftGetFailed   = NewError(30001, lang{"Draft get failed", "草稿获取失败"})
	ErrorDraftEditFailed  = NewError(30002, lang{"Draft edit failed", "草稿编辑失败"})
	ErrorDraftSaveFailed  = NewError(30003, lang{"Draft save failed", "草稿保存失败"})
	ErrorDraftClearFailed = NewError(30004, lang{"Draft clear failed", "草稿清除失败"})
	ErrorDraftListFailed  = NewError(30005, lang{"Draft list failed", "草稿列表获取失败"})
	ErrorDraftNotFound    = NewError(30006, lang{"Draft not found", "草稿不存在"})
	ErrorDraftDiffFailed  = NewError(30007, lang{"Draft diff failed", "草稿对比失败"})
	ErrorDraftKeyInvalid  = NewError(30008, lang{"Draft key is invalid", "草稿键不合法"})
	ErrorDraftTooLarge    = NewError(30009, lang{"Draft document too large", "草稿内容过大"})
	ErrorSessionClosed    = NewError(30010, lang{"Draft session is closed", "草稿会话已关闭"})
	ErrorDraftStoreWrite  = NewError(30011, lang{"Draft store write rejected", "草稿存储写入被拒绝"})
)

// 备份与运维错误码
var (
	ErrorBackupRunFailed      = NewError(40001, lang{"Backup run failed", "备份执行失败"})
	ErrorBackupConfigDisabled = NewError(40002, lang{"Backup is disabled", "备份未启用"})
	ErrorBackupTaskRunning    = NewError(40003, lang{"Backup task is already running", "备份任务执行中"})
	ErrorStatsCollectFailed   = NewError(40004, lang{"Stats collection failed", "统计信息采集失败"})
)
