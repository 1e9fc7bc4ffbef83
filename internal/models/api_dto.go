package models

import "strings"

// 分页相关的固定约束。
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// SearchRequest 定义搜索 API 请求的参数及验证规则.
type SearchRequest struct {
	Query    string `form:"q" json:"q"`               // 搜索关键词，非必需
	Category string `form:"category" json:"category"` // 分类 key，精确匹配
	City     string `form:"city" json:"city"`         // 城市，精确匹配
	State    string `form:"state" json:"state"`       // 州/省，精确匹配
	// 语言，默认 en；不支持的值按 en 处理
	Locale string `form:"locale,default=en" json:"locale"`
	// 每页数量，超过 100 会被截断
	Limit  int `form:"limit,default=20" json:"limit" binding:"omitempty,min=0"`
	Offset int `form:"offset,default=0" json:"offset" binding:"omitempty,min=0"`
}

// Normalize 返回补全默认值并截断分页参数后的请求副本。
// Limit <= 0 视为未提供，使用默认值 20；大于 100 时截断为 100。
func (r SearchRequest) Normalize() SearchRequest {
	r.Query = strings.TrimSpace(r.Query)
	r.Category = strings.TrimSpace(r.Category)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.TrimSpace(r.State)
	r.Locale = NormalizeLocale(r.Locale)
	if r.Limit <= 0 {
		r.Limit = DefaultSearchLimit
	}
	if r.Limit > MaxSearchLimit {
		r.Limit = MaxSearchLimit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
	return r
}

// NormalizeLocale 把空值或不支持的语言代码归一为 en。
func NormalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if !IsSupportedLocale(locale) {
		return LocaleEN
	}
	return locale
}

// SearchHit 是一条命中的商家文档，附带相关性评分与高亮片段。
type SearchHit struct {
	SearchDocument
	Score      float64             `json:"score"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// SearchResult 定义搜索 API 的响应数据结构.
type SearchResult struct {
	Businesses []SearchHit `json:"businesses"` // 命中的商家列表
	Total      int64       `json:"total"`      // 总命中数
	Took       int64       `json:"took"`       // 引擎报告的耗时（毫秒）
}

// EmptySearchResult 返回引擎不可用时使用的降级结果。
func EmptySearchResult() *SearchResult {
	return &SearchResult{Businesses: []SearchHit{}, Total: 0, Took: 0}
}

// SuggestRequest 定义自动补全请求参数.
type SuggestRequest struct {
	Query  string `form:"q" json:"q"`
	Locale string `form:"locale,default=en" json:"locale"`
}

// WriteResult 是管理写接口的响应体.
type WriteResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}
