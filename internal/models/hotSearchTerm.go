package models

import "time"

// HotSearchTerm 定义 API 返回的热门搜索词的结构。
type HotSearchTerm struct {
	Term   string `json:"term"`
	Locale string `json:"locale"`
	Count  int64  `json:"count,omitempty"`
}

// HotSearchTermES 定义在 Elasticsearch 中存储热门搜索词统计数据的结构。
// 同一个词在不同语言下分别计数，文档 ID 为 "<locale>:<term>"。
type HotSearchTermES struct {
	Term           string    `json:"term"`
	Locale         string    `json:"locale"`
	Count          int64     `json:"count"`
	LastSearchedAt time.Time `json:"last_searched_at"`
}

// HotSearchTermDocID 返回某个语言下搜索词的文档 ID。
func HotSearchTermDocID(locale, term string) string {
	return locale + ":" + term
}
