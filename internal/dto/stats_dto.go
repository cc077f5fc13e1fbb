package dto

import "time"

// StatsDTO Full service status for the admin endpoint
// StatsDTO 管理端完整服务状态
type StatsDTO struct {
	StartTime time.Time        `json:"startTime"` // Service start time // 服务启动时间
	Uptime    float64          `json:"uptime"`    // Uptime in seconds // 运行时长（秒）
	Autosave  AutosaveStats    `json:"autosave"`  // Session and save counters // 会话与保存计数
	Sockets   WebsocketStats   `json:"sockets"`   // WebSocket connection counts // WebSocket 连接计数
	Workers   WorkerPoolStats  `json:"workers"`   // Worker pool state // 工作池状态
	Writes    WriteQueueStats  `json:"writes"`    // Store write queue state // 存储写入队列状态
	Runtime   RuntimeStats     `json:"runtime"`   // Go runtime status // Go 运行时状态
	CPU       CPUStats         `json:"cpu"`       // CPU information // CPU 信息
	Memory    MemoryStats      `json:"memory"`    // Memory information // 内存信息
	Host      HostStats        `json:"host"`      // Host information // 主机信息
	Process   ProcessStats     `json:"process"`   // Process information // 进程信息
}

// AutosaveStats Counters published by the session manager
// AutosaveStats 会话管理器发布的计数
type AutosaveStats struct {
	ActiveSessions int   `json:"activeSessions"` // Live controllers right now // 当前存活的控制器数
	SessionsOpened int64 `json:"sessionsOpened"` // Sessions opened since start // 启动以来打开的会话数
	Saves          int64 `json:"saves"`          // Successful store writes // 成功写入次数
	SaveErrors     int64 `json:"saveErrors"`     // Failed store writes // 失败写入次数
	Recovered      int64 `json:"recovered"`      // Corrupted records recovered at load // 加载时恢复的损坏记录数
	DebounceResets int64 `json:"debounceResets"` // Armed timers superseded by newer edits // 被后续编辑取代的防抖次数
}

// WebsocketStats WebSocket connection counters
// WebsocketStats WebSocket 连接计数
type WebsocketStats struct {
	Connections int `json:"connections"` // Open connections // 当前连接数
}

// WorkerPoolStats Broadcast worker pool state
// Dropped counts status pushes rejected because the queue was full.
// WorkerPoolStats 广播工作池状态
// Dropped 为队列满被丢弃的状态推送数
type WorkerPoolStats struct {
	MaxWorkers    int   `json:"maxWorkers"`
	ActiveCount   int64 `json:"activeCount"`
	QueuedCount   int   `json:"queuedCount"`
	QueueCapacity int   `json:"queueCapacity"`
	Submitted     int64 `json:"submitted"`
	Completed     int64 `json:"completed"`
	Dropped       int64 `json:"dropped"`
}

// WriteQueueStats Per-namespace store write queue state
// WriteQueueStats 按命名空间隔离的存储写入队列状态
type WriteQueueStats struct {
	QueueCapacity int   `json:"queueCapacity"`
	ActiveQueues  int   `json:"activeQueues"`
	Executed      int64 `json:"executed"`
	Dropped       int64 `json:"dropped"`
}

// RuntimeStats Go runtime information
// RuntimeStats Go 运行时信息
type RuntimeStats struct {
	NumGoroutine int    `json:"numGoroutine"` // Number of goroutines // Goroutine 数量
	MemAlloc     uint64 `json:"memAlloc"`     // Allocated memory (bytes) // 已分配内存（字节）
	MemTotal     uint64 `json:"memTotal"`     // Total memory allocated (bytes) // 累计分配内存（字节）
	MemSys       uint64 `json:"memSys"`       // Memory obtained from system (bytes) // 从系统获取的内存（字节）
	HeapInuse    uint64 `json:"heapInuse"`    // Memory in in-use spans (bytes) // 正在使用的 Span 占用的内存
	NumGC        uint32 `json:"numGc"`        // Number of completed GC cycles // GC 次数
}

// CPUStats CPU information
// CPUStats CPU 信息
type CPUStats struct {
	ModelName     string    `json:"modelName"`     // Model name // 型号
	PhysicalCores int       `json:"physicalCores"` // Physical cores // 物理核心数
	LogicalCores  int       `json:"logicalCores"`  // Logical cores // 逻辑核心数
	Percent       []float64 `json:"percent"`       // Usage percentage per core // 每个核心的使用率
	LoadAvg       *LoadStats `json:"loadAvg"`      // Load average, nil where unsupported // 平均负载，平台不支持时为 nil
}

// LoadStats system load information
type LoadStats struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// MemoryStats memory information
type MemoryStats struct {
	Total       uint64  `json:"total"`       // Total physical memory // 系统总内存
	Available   uint64  `json:"available"`   // Available memory // 可用内存
	Used        uint64  `json:"used"`        // Used memory // 已用内存
	UsedPercent float64 `json:"usedPercent"` // Memory usage percentage // 内存使用率
}

// HostStats host identification information
type HostStats struct {
	Hostname      string `json:"hostname"`      // Hostname // 主机名
	OS            string `json:"os"`            // Operating system // 操作系统
	OSPretty      string `json:"osPretty"`      // Detailed OS name // 详细操作系统名称
	Platform      string `json:"platform"`      // Platform name // 平台
	Arch          string `json:"arch"`          // Architecture // 架构
	KernelVersion string `json:"kernelVersion"` // Kernel version // 内核版本
	Uptime        uint64 `json:"uptime"`        // System uptime // 系统运行时间
}

// ProcessStats current process information
type ProcessStats struct {
	PID           int32   `json:"pid"`           // Process ID
	Name          string  `json:"name"`          // Process Name
	CPUPercent    float64 `json:"cpuPercent"`    // CPU Usage percentage
	MemoryPercent float32 `json:"memoryPercent"` // Memory Usage percentage
}
