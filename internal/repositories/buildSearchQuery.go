// FileName: repositories/buildSearchQuery.go
package repositories

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/Xushengqwer/business_search/internal/models"
)

// 查询编译相关的常量，它们是客户端可观察到的契约，修改需谨慎。
const (
	NameBoost         = 3 // name_<locale> 的权重
	DescriptionBoost  = 2 // description_<locale> 的权重
	AutocompleteBoost = 2 // name_<locale>.autocomplete 前缀匹配的权重

	SuggestMinLength  = 2  // 少于该字符数的前缀不发往引擎
	SuggestMaxOptions = 10 // 补全候选的上限
	SuggestName       = "business_suggest"
)

// highlightFields 无论查询使用哪种语言，都对四个名称/描述字段请求高亮。
var highlightFields = []string{"name_en", "name_zh", "description_en", "description_zh"}

// LocalizedField 返回某个语言下的字段名，例如 ("name", "zh") -> "name_zh"。
// 不支持的语言回退到 en。
func LocalizedField(base, locale string) string {
	return base + "_" + models.NormalizeLocale(locale)
}

// BuildSearchQuery 把搜索请求编译为 Elasticsearch 的 _search 请求体。
//
// 结构：
//   - filter: status=published（始终存在），以及可选的分类 / 城市 / 州过滤；
//   - must:   有关键词时，在当前语言的名称、描述、分类名上做 multi_match；
//   - should: 有关键词时，对名称 autocomplete 子字段做短语前缀匹配以提升前缀命中；
//   - sort:   _score desc，created_at desc；
//   - from/size: offset 与截断到 [0,100] 的 limit。
func BuildSearchQuery(req models.SearchRequest) map[string]interface{} {
	req = req.Normalize()

	filters := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{"status": models.BusinessStatusPublished},
		},
	}

	if req.Category != "" {
		// categories 是 nested 类型，必须通过 nested 查询才能匹配子文档字段。
		filters = append(filters, map[string]interface{}{
			"nested": map[string]interface{}{
				"path": "categories",
				"query": map[string]interface{}{
					"term": map[string]interface{}{"categories.key": req.Category},
				},
			},
		})
	}
	if req.City != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"city": req.City},
		})
	}
	if req.State != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"state": req.State},
		})
	}

	boolQuery := map[string]interface{}{
		"filter": filters,
	}

	var must, should []interface{}
	if req.Query != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query": req.Query,
				"fields": []string{
					fmt.Sprintf("%s^%d", LocalizedField("name", req.Locale), NameBoost),
					fmt.Sprintf("%s^%d", LocalizedField("description", req.Locale), DescriptionBoost),
					LocalizedField("category_names", req.Locale),
				},
				"operator":  "and",
				"fuzziness": "AUTO",
			},
		})
		should = append(should, map[string]interface{}{
			"match_phrase_prefix": map[string]interface{}{
				LocalizedField("name", req.Locale) + ".autocomplete": map[string]interface{}{
					"query": req.Query,
					"boost": AutocompleteBoost,
				},
			},
		})
	}

	if len(must) > 0 {
		boolQuery["must"] = must
	}
	// 空的 should 配合 minimum_should_match 会在部分引擎实现中排除所有文档。
	if len(should) > 0 {
		boolQuery["should"] = should
		boolQuery["minimum_should_match"] = 1
	}

	highlight := make(map[string]interface{}, len(highlightFields))
	for _, f := range highlightFields {
		highlight[f] = map[string]interface{}{}
	}

	return map[string]interface{}{
		"from": req.Offset,
		"size": clampLimit(req.Limit),
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
		"sort": []interface{}{
			map[string]interface{}{"_score": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
		"highlight": map[string]interface{}{
			"fields": highlight,
		},
		"track_total_hits": true,
	}
}

// BuildSuggestQuery 构建针对当前语言 completion 子字段的补全请求体。
// 前缀过短时返回 nil, false，调用方不应发起引擎请求。
func BuildSuggestQuery(prefix, locale string) (map[string]interface{}, bool) {
	if !SuggestPrefixLongEnough(prefix) {
		return nil, false
	}
	return map[string]interface{}{
		"suggest": map[string]interface{}{
			SuggestName: map[string]interface{}{
				"prefix": prefix,
				"completion": map[string]interface{}{
					"field":           LocalizedField("name", locale) + ".completion",
					"size":            SuggestMaxOptions,
					"skip_duplicates": true,
				},
			},
		},
		"_source": false,
	}, true
}

// SuggestPrefixLongEnough 按字符（而非字节）计数，中文前缀 "金龙" 计为 2。
func SuggestPrefixLongEnough(prefix string) bool {
	return utf8.RuneCountInString(prefix) >= SuggestMinLength
}

func clampLimit(limit int) int {
	if limit < 0 {
		return 0
	}
	if limit > models.MaxSearchLimit {
		return models.MaxSearchLimit
	}
	return limit
}

// marshalQuery 把查询体序列化为 JSON。
func marshalQuery(body map[string]interface{}) ([]byte, error) {
	queryJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("序列化 Elasticsearch 查询对象为 JSON 失败: %w", err)
	}
	return queryJSON, nil
}
