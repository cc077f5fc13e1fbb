package app

import (
	"strings"

	"github.com/haierkeys/draft-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// VersionInfo 构建版本信息
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

// CheckVersionInfo carries the result of the release check, for the server
// binary and for the editor client plugin separately.
// CheckVersionInfo 版本检查结果，服务端与编辑器客户端插件分开给出
type CheckVersionInfo struct {
	VersionIsNew         bool   `json:"versionIsNew"`
	VersionNewName       string `json:"versionNewName"`
	VersionNewLink       string `json:"versionNewLink"`
	ClientVersionIsNew   bool   `json:"clientVersionIsNew"`
	ClientVersionNewName string `json:"clientVersionNewName"`
	ClientVersionNewLink string `json:"clientVersionNewLink"`
}

type Response struct {
	Ctx *gin.Context
}

type Pager struct {
	Page      int `json:"page"`      // 页码
	PageSize  int `json:"pageSize"`  // 每页数量
	TotalRows int `json:"totalRows"` // 总行数
}

type ListRes struct {
	List  interface{} `json:"list"`  // 数据清单
	Pager Pager       `json:"pager"` // 翻页信息
}

// Res is the success-path response envelope. Key/Details/Context are
// optional and omitted when unset; the websocket push frames reuse the
// same shape so clients decode one format on both transports.
// Res 是成功响应的统一信封，Key/Details/Context 可选，未设置不序列化，
// websocket 推送帧复用同一结构，客户端两条通道只需解一种格式
type Res struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Message interface{} `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Key     interface{} `json:"key,omitempty"`
	Context interface{} `json:"context,omitempty"`
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{
		Ctx: ctx,
	}
}

// GetAccessHost 返回请求侧可见的服务地址，经反代时以 X-Forwarded-Proto 为准
func GetAccessHost(c *gin.Context) string {
	proto := c.Request.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
	}
	return proto + "://" + c.Request.Host
}

// newRes 组装信封公共部分，Data 与 Details 由调用方按场景补齐
func newRes(codeObj *code.Code) Res {
	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.Lang.GetMessage(),
	}
	if codeObj.HaveKey() {
		content.Key = codeObj.Key()
	}
	return content
}

// ToResponse 输出单对象响应
func (r *Response) ToResponse(codeObj *code.Code) {
	r.Ctx.Set("status_code", codeObj.StatusCode())

	content := newRes(codeObj)
	content.Data = codeObj.Data()

	if codeObj.HaveDetails() {
		content.Details = strings.Join(codeObj.Details(), ",")
	}
	if codeObj.HaveContext() {
		content.Context = codeObj.Context()
	}

	r.send(codeObj.StatusCode(), content)
}

// ToResponseList 输出列表响应，Data 为 ListRes，分页信息从请求参数取
func (r *Response) ToResponseList(codeObj *code.Code, list interface{}, totalRows int) {
	r.Ctx.Set("status_code", codeObj.StatusCode())

	content := newRes(codeObj)
	content.Data = ListRes{
		List:  list,
		Pager: *NewPager(r.Ctx, totalRows),
	}

	r.send(codeObj.StatusCode(), content)
}

func (r *Response) send(statusCode int, content interface{}) {
	r.Ctx.JSON(statusCode, content)
}
