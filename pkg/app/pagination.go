package app

import (
	"github.com/haierkeys/draft-sync-service/pkg/convert"

	"github.com/gin-gonic/gin"
)

// PaginationConfig 分页配置
type PaginationConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultPaginationConfig 草稿列表接口使用的默认分页配置
var DefaultPaginationConfig = PaginationConfig{
	DefaultPageSize: 10,
	MaxPageSize:     100,
}

// pageParam 从 query 或表单取一个分页参数，解析失败按 0 处理
func pageParam(c *gin.Context, name string) int {
	if s, exist := c.GetQuery(name); exist {
		return convert.StrTo(s).MustInt()
	}
	if s := c.PostForm(name); s != "" {
		return convert.StrTo(s).MustInt()
	}
	return 0
}

func GetPage(c *gin.Context) int {
	page := pageParam(c, "page")
	if page <= 0 {
		return 1
	}
	return page
}

// GetPageSizeWithConfig 获取分页大小，越界时压回配置允许的范围
func GetPageSizeWithConfig(c *gin.Context, cfg PaginationConfig) int {
	pageSize := pageParam(c, "pageSize")
	if pageSize <= 0 {
		return cfg.DefaultPageSize
	}
	if pageSize > cfg.MaxPageSize {
		return cfg.MaxPageSize
	}
	return pageSize
}

// GetPageSize 获取分页大小，使用默认配置
func GetPageSize(c *gin.Context) int {
	return GetPageSizeWithConfig(c, DefaultPaginationConfig)
}

func GetPageOffset(page, pageSize int) int {
	if page > 0 {
		return (page - 1) * pageSize
	}
	return 0
}

// NewPager builds pager info from the request and the total row count.
// NewPager 根据请求与总行数构建分页信息
func NewPager(c *gin.Context, totalRows int) *Pager {
	return &Pager{
		Page:      GetPage(c),
		PageSize:  GetPageSize(c),
		TotalRows: totalRows,
	}
}
