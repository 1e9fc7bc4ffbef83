package models

import (
	"errors"
	"time"
)

// 支持的语言代码。
const (
	LocaleEN = "en"
	LocaleZH = "zh"
)

// SupportedLocales 按固定顺序列出所有被索引的语言。
var SupportedLocales = []string{LocaleEN, LocaleZH}

// IsSupportedLocale 判断给定的语言代码是否受支持。
func IsSupportedLocale(locale string) bool {
	return locale == LocaleEN || locale == LocaleZH
}

// BusinessStatus 表示商家在目录中的可见状态。
type BusinessStatus string

const (
	BusinessStatusPending   BusinessStatus = "pending"
	BusinessStatusPublished BusinessStatus = "published"
	BusinessStatusRejected  BusinessStatus = "rejected"
)

// BusinessRecord 是关系存储中商家记录在索引时刻的快照。
// 调用方必须预先加载好全部嵌套关联（多语言条目、分类、联系方式、地址）。
type BusinessRecord struct {
	ID           string                `json:"id"`
	Slug         string                `json:"slug"`
	Status       BusinessStatus        `json:"status"`
	Translations []LocalizedEntry      `json:"translations"` // 每个语言代码至多一条
	Categories   []CategoryAssociation `json:"categories"`
	Contact      *Contact              `json:"contact,omitempty"`
	Location     *Location             `json:"location,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// LocalizedEntry 是某一语言下的商家名称与描述。
type LocalizedEntry struct {
	Language    string `json:"language"` // "en" 或 "zh"
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CategoryAssociation 是商家与分类的关联行，Category 为已解析的分类行。
type CategoryAssociation struct {
	CategoryID string    `json:"category_id"`
	Category   *Category `json:"category,omitempty"`
}

// Category 是分类行。
type Category struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	NameEn string `json:"name_en"`
	NameZh string `json:"name_zh"`
}

// Contact 是商家的联系方式。
type Contact struct {
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

// Location 是商家的地址信息。
type Location struct {
	City         string   `json:"city"`
	State        string   `json:"state"`
	PostalCode   string   `json:"postal_code"`
	AddressLines []string `json:"address_lines"`
}

// Translation 返回指定语言的条目；不存在时返回 nil。
func (r BusinessRecord) Translation(language string) *LocalizedEntry {
	for i := range r.Translations {
		if r.Translations[i].Language == language {
			return &r.Translations[i]
		}
	}
	return nil
}

// IsPublished 判断记录当前是否处于公开可见状态。
func (r BusinessRecord) IsPublished() bool {
	return r.Status == BusinessStatusPublished
}

// ErrBusinessNotFound 表示商家记录在目录中不存在。
var ErrBusinessNotFound = errors.New("目录中未找到该商家")
