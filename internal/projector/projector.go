// Package projector 把关系存储中的商家记录投影为扁平的 Elasticsearch 文档。
package projector

import (
	"strings"

	"github.com/Xushengqwer/business_search/internal/models"
)

// Project 把 BusinessRecord 转换为 SearchDocument。
// 纯函数：不访问网络或数据库，对同一输入始终产生相同输出。
// 记录缺少 ID 属于调用方的前置条件错误，这里不做校验。
func Project(record models.BusinessRecord) models.SearchDocument {
	doc := models.SearchDocument{
		ID:         record.ID,
		Slug:       record.Slug,
		Status:     record.Status,
		Categories: projectCategories(record.Categories),
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}

	// 缺失的语言保留空字符串，而不是省略字段。
	if en := record.Translation(models.LocaleEN); en != nil {
		doc.NameEn = en.Name
		doc.DescriptionEn = en.Description
	}
	if zh := record.Translation(models.LocaleZH); zh != nil {
		doc.NameZh = zh.Name
		doc.DescriptionZh = zh.Description
	}

	if loc := record.Location; loc != nil {
		doc.City = loc.City
		doc.State = loc.State
		doc.Zip = loc.PostalCode
		doc.Address = strings.Join(loc.AddressLines, " ")
	}

	if c := record.Contact; c != nil {
		doc.Phone = c.Phone
		doc.Email = c.Email
		doc.Website = c.Website
	}

	return doc
}

// projectCategories 按关联顺序一对一映射分类摘要，始终返回非 nil 切片。
func projectCategories(assocs []models.CategoryAssociation) []models.CategorySummary {
	summaries := make([]models.CategorySummary, 0, len(assocs))
	for _, a := range assocs {
		summary := models.CategorySummary{ID: a.CategoryID}
		if c := a.Category; c != nil {
			if c.ID != "" {
				summary.ID = c.ID
			}
			summary.Key = c.Key
			summary.NameEn = c.NameEn
			summary.NameZh = c.NameZh
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
