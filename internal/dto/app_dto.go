// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

// VersionGetRequest version query parameters
// VersionGetRequest 版本查询参数
type VersionGetRequest struct {
	Version string `json:"version" form:"version" example:"1.2.0"` // Client's own version for upgrade comparison // 客户端自身版本，用于升级比较
}

// VersionDTO version information for API response
// VersionDTO 版本信息 API 响应对象
type VersionDTO struct {
	Version              string `json:"version"`              // Current server version // 当前服务版本
	GitTag               string `json:"gitTag"`               // Git tag // Git 标签
	BuildTime            string `json:"buildTime"`            // Build time // 构建时间
	VersionIsNew         bool   `json:"versionIsNew"`         // Is there a new server version // 服务端是否有新版本
	VersionNewName       string `json:"versionNewName"`       // New server version name // 服务端新版本名称
	VersionNewLink       string `json:"versionNewLink"`       // New server version download link // 服务端新版本下载链接
	ClientVersionIsNew   bool   `json:"clientVersionIsNew"`   // Is there a new client version // 客户端是否有新版本
	ClientVersionNewName string `json:"clientVersionNewName"` // New client version name // 客户端新版本名称
	ClientVersionNewLink string `json:"clientVersionNewLink"` // New client version download link // 客户端新版本下载链接
}
