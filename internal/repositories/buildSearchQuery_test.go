package repositories

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/business_search/internal/models"
)

// compile 编译查询并经过一次 JSON 往返，得到与发往引擎完全一致的结构。
func compile(t *testing.T, req models.SearchRequest) map[string]interface{} {
	t.Helper()
	raw, err := marshalQuery(BuildSearchQuery(req))
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func boolClause(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	query, ok := body["query"].(map[string]interface{})
	require.True(t, ok, "query must be an object")
	b, ok := query["bool"].(map[string]interface{})
	require.True(t, ok, "query.bool must be an object")
	return b
}

func TestBuildSearchQuery_AlwaysFiltersPublished(t *testing.T) {
	for _, req := range []models.SearchRequest{
		{},
		{Query: "noodles"},
		{Category: "restaurants", City: "Phoenix", State: "AZ"},
	} {
		b := boolClause(t, compile(t, req))
		filters, ok := b["filter"].([]interface{})
		require.True(t, ok)
		require.NotEmpty(t, filters)
		assert.Equal(t, map[string]interface{}{
			"term": map[string]interface{}{"status": "published"},
		}, filters[0])
	}
}

func TestBuildSearchQuery_NoFreeTextHasNoMustOrShould(t *testing.T) {
	b := boolClause(t, compile(t, models.SearchRequest{Query: "   "}))

	assert.NotContains(t, b, "must")
	assert.NotContains(t, b, "should")
	assert.NotContains(t, b, "minimum_should_match")
}

func TestBuildSearchQuery_FreeTextAddsMustAndShould(t *testing.T) {
	b := boolClause(t, compile(t, models.SearchRequest{Query: "dim sum", Locale: "zh"}))

	must, ok := b["must"].([]interface{})
	require.True(t, ok)
	require.Len(t, must, 1)

	mm := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "dim sum", mm["query"])
	assert.Equal(t, []interface{}{"name_zh^3", "description_zh^2", "category_names_zh"}, mm["fields"])
	assert.Equal(t, "and", mm["operator"])
	assert.Equal(t, "AUTO", mm["fuzziness"])

	should, ok := b["should"].([]interface{})
	require.True(t, ok)
	require.Len(t, should, 1)
	prefix := should[0].(map[string]interface{})["match_phrase_prefix"].(map[string]interface{})
	clause, ok := prefix["name_zh.autocomplete"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "dim sum", clause["query"])
	assert.EqualValues(t, 2, clause["boost"])

	assert.EqualValues(t, 1, b["minimum_should_match"])
}

func TestBuildSearchQuery_GoldenDragonUsesEnglishFields(t *testing.T) {
	b := boolClause(t, compile(t, models.SearchRequest{Query: "golden dragon", Locale: "en"}))

	must := b["must"].([]interface{})
	fields := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})["fields"].([]interface{})
	assert.Contains(t, fields, "name_en^3")
	assert.Contains(t, fields, "description_en^2")
	for _, f := range fields {
		assert.NotContains(t, f, "_zh")
	}
}

func TestBuildSearchQuery_UnsupportedLocaleFallsBackToEnglish(t *testing.T) {
	b := boolClause(t, compile(t, models.SearchRequest{Query: "tacos", Locale: "fr"}))

	fields := b["must"].([]interface{})[0].(map[string]interface{})["multi_match"].(map[string]interface{})["fields"].([]interface{})
	assert.Equal(t, "name_en^3", fields[0])
}

func TestBuildSearchQuery_Filters(t *testing.T) {
	b := boolClause(t, compile(t, models.SearchRequest{Category: "restaurants", City: "Phoenix", State: "AZ"}))

	filters := b["filter"].([]interface{})
	require.Len(t, filters, 4)
	assert.Equal(t, map[string]interface{}{
		"nested": map[string]interface{}{
			"path": "categories",
			"query": map[string]interface{}{
				"term": map[string]interface{}{"categories.key": "restaurants"},
			},
		},
	}, filters[1])
	assert.Equal(t, map[string]interface{}{"term": map[string]interface{}{"city": "Phoenix"}}, filters[2])
	assert.Equal(t, map[string]interface{}{"term": map[string]interface{}{"state": "AZ"}}, filters[3])
}

func TestBuildSearchQuery_Pagination(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantSize   float64
		wantOffset float64
	}{
		{"default limit", 0, 0, 20, 0},
		{"explicit limit", 5, 10, 5, 10},
		{"limit at ceiling", 100, 0, 100, 0},
		{"limit above ceiling", 500, 0, 100, 0},
		{"negative offset", 10, -3, 10, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := compile(t, models.SearchRequest{Limit: tc.limit, Offset: tc.offset})
			assert.Equal(t, tc.wantSize, body["size"])
			assert.Equal(t, tc.wantOffset, body["from"])
		})
	}
}

func TestBuildSearchQuery_SortAndHighlight(t *testing.T) {
	body := compile(t, models.SearchRequest{Query: "golden", Locale: "zh"})

	assert.Equal(t, []interface{}{
		map[string]interface{}{"_score": map[string]interface{}{"order": "desc"}},
		map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
	}, body["sort"])

	fields := body["highlight"].(map[string]interface{})["fields"].(map[string]interface{})
	assert.Len(t, fields, 4)
	for _, f := range []string{"name_en", "name_zh", "description_en", "description_zh"} {
		assert.Contains(t, fields, f)
	}
	assert.Equal(t, true, body["track_total_hits"])
}

func TestBuildSuggestQuery(t *testing.T) {
	body, ok := BuildSuggestQuery("gol", "en")
	require.True(t, ok)

	suggest := body["suggest"].(map[string]interface{})[SuggestName].(map[string]interface{})
	assert.Equal(t, "gol", suggest["prefix"])
	completion := suggest["completion"].(map[string]interface{})
	assert.Equal(t, "name_en.completion", completion["field"])
	assert.Equal(t, 10, completion["size"])
	assert.Equal(t, true, completion["skip_duplicates"])
}

func TestBuildSuggestQuery_ShortPrefix(t *testing.T) {
	for _, p := range []string{"", "g", "金"} {
		body, ok := BuildSuggestQuery(p, "en")
		assert.False(t, ok, "prefix %q", p)
		assert.Nil(t, body)
	}

	body, ok := BuildSuggestQuery("金龙", "zh")
	require.True(t, ok)
	completion := body["suggest"].(map[string]interface{})[SuggestName].(map[string]interface{})["completion"].(map[string]interface{})
	assert.Equal(t, "name_zh.completion", completion["field"])
}

func TestLocalizedField(t *testing.T) {
	assert.Equal(t, "name_en", LocalizedField("name", "en"))
	assert.Equal(t, "name_zh", LocalizedField("name", "ZH"))
	assert.Equal(t, "description_en", LocalizedField("description", ""))
}
