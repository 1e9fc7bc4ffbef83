package models

import (
	"time"
)

// SearchDocument 表示存储在 Elasticsearch 中的商家文档结构，文档 _id 即 ID。
// 双语字段被展开为独立字段；缺失的语言以空字符串出现，保证映射形状一致。
type SearchDocument struct {
	ID            string            `json:"id"`
	Slug          string            `json:"slug"`
	Status        BusinessStatus    `json:"status"`
	NameEn        string            `json:"name_en"`
	NameZh        string            `json:"name_zh"`
	DescriptionEn string            `json:"description_en"`
	DescriptionZh string            `json:"description_zh"`
	Categories    []CategorySummary `json:"categories"`
	City          string            `json:"city"`
	State         string            `json:"state"`
	Zip           string            `json:"zip"`
	Address       string            `json:"address"`
	Phone         string            `json:"phone"`
	Email         string            `json:"email"`
	Website       string            `json:"website"`
	// 评分聚合尚未设计，始终为 null，不能与"零条评价"混淆。
	Rating      *float64  `json:"rating"`
	ReviewCount *int      `json:"review_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategorySummary 是文档中反规范化的分类摘要，两种语言的名称都会被索引。
type CategorySummary struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	NameEn string `json:"name_en"`
	NameZh string `json:"name_zh"`
}

// Name 返回指定语言的名称字段。
func (d SearchDocument) Name(locale string) string {
	if locale == LocaleZH {
		return d.NameZh
	}
	return d.NameEn
}
