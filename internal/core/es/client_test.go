package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

// fakeCluster 记录收到的请求，并按 handler 返回响应。
type fakeCluster struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeCluster) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
}

func (f *fakeCluster) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.Method+" "+r.Path)
	}
	return out
}

func newFakeCluster(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*fakeCluster, *elasticsearch.Client) {
	t.Helper()
	fc := &fakeCluster{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fc.record(r)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}, DisableRetry: true})
	require.NoError(t, err)
	return fc, client
}

func businessIndexCfg() config.IndexSpecificConfig {
	return config.IndexSpecificConfig{Name: "businesses", NumberOfShards: 3, NumberOfReplicas: 2}
}

func TestLoadIndexTemplate_EmbeddedMergesShardsAndReplicas(t *testing.T) {
	raw, err := LoadIndexTemplate(businessIndexCfg(), BusinessTemplate)
	require.NoError(t, err)

	var tmpl map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &tmpl))

	settings := tmpl["settings"].(map[string]interface{})
	assert.EqualValues(t, 3, settings["number_of_shards"])
	assert.EqualValues(t, 2, settings["number_of_replicas"])
	assert.Contains(t, settings, "analysis")

	props := tmpl["mappings"].(map[string]interface{})["properties"].(map[string]interface{})
	for _, field := range []string{"name_en", "name_zh", "description_en", "description_zh", "categories", "city", "state", "status", "created_at", "rating", "review_count"} {
		assert.Contains(t, props, field)
	}
	assert.Equal(t, "nested", props["categories"].(map[string]interface{})["type"])

	nameZh := props["name_zh"].(map[string]interface{})
	subFields := nameZh["fields"].(map[string]interface{})
	assert.Contains(t, subFields, "autocomplete")
	assert.Equal(t, "completion", subFields["completion"].(map[string]interface{})["type"])
}

// autocomplete 子字段中，同一个词的所有前缀必须与该词处在同一位置。
func TestLoadIndexTemplate_AutocompleteAnalyzersKeepPositions(t *testing.T) {
	raw, err := LoadIndexTemplate(businessIndexCfg(), BusinessTemplate)
	require.NoError(t, err)

	var tmpl struct {
		Settings struct {
			Analysis struct {
				Analyzer map[string]struct {
					Tokenizer string   `json:"tokenizer"`
					Filter    []string `json:"filter"`
				} `json:"analyzer"`
				Filter    map[string]map[string]interface{} `json:"filter"`
				Tokenizer map[string]map[string]interface{} `json:"tokenizer"`
			} `json:"analysis"`
		} `json:"settings"`
		Mappings struct {
			Properties map[string]struct {
				Fields map[string]struct {
					Analyzer       string `json:"analyzer"`
					SearchAnalyzer string `json:"search_analyzer"`
				} `json:"fields"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(raw, &tmpl))
	analysis := tmpl.Settings.Analysis

	for _, tok := range analysis.Tokenizer {
		assert.NotEqual(t, "edge_ngram", tok["type"], "edge_ngram 不能作为 tokenizer")
	}

	cases := []struct {
		field           string
		wantTokenizer   string
		searchTokenizer string
	}{
		{"name_en", "standard", "standard"},
		{"name_zh", "keyword", "keyword"},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			sub, ok := tmpl.Mappings.Properties[tc.field].Fields["autocomplete"]
			require.True(t, ok)

			index, ok := analysis.Analyzer[sub.Analyzer]
			require.True(t, ok, "索引分析器 %s 未定义", sub.Analyzer)
			assert.Equal(t, tc.wantTokenizer, index.Tokenizer)

			var hasEdgeNgram bool
			for _, f := range index.Filter {
				if def, ok := analysis.Filter[f]; ok && def["type"] == "edge_ngram" {
					hasEdgeNgram = true
				}
			}
			assert.True(t, hasEdgeNgram, "索引分析器应包含 edge_ngram filter")

			search, ok := analysis.Analyzer[sub.SearchAnalyzer]
			require.True(t, ok, "搜索分析器 %s 未定义", sub.SearchAnalyzer)
			assert.Equal(t, tc.searchTokenizer, search.Tokenizer)
			assert.NotContains(t, search.Filter, "autocomplete_filter")
		})
	}
}

func TestLoadIndexTemplate_MappingFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mappings":{"properties":{"id":{"type":"keyword"}}}}`), 0o600))

	cfg := businessIndexCfg()
	cfg.MappingFile = path
	raw, err := LoadIndexTemplate(cfg, BusinessTemplate)
	require.NoError(t, err)

	var tmpl map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &tmpl))
	assert.EqualValues(t, 3, tmpl["settings"].(map[string]interface{})["number_of_shards"])
	props := tmpl["mappings"].(map[string]interface{})["properties"].(map[string]interface{})
	assert.Len(t, props, 1)
}

func TestLoadIndexTemplate_MissingFile(t *testing.T) {
	cfg := businessIndexCfg()
	cfg.MappingFile = filepath.Join(t.TempDir(), "nope.json")
	_, err := LoadIndexTemplate(cfg, BusinessTemplate)
	assert.Error(t, err)
}

func TestEnsureIndex_ExistingIndexIsNoop(t *testing.T) {
	fc, client := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ok := EnsureIndex(context.Background(), client, businessIndexCfg(), BusinessTemplate, zap.NewNop(), "商家")
	assert.True(t, ok)
	assert.Equal(t, []string{"HEAD /businesses"}, fc.methods())
}

func TestEnsureIndex_CreatesMissingIndex(t *testing.T) {
	fc, client := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"acknowledged":true,"index":"businesses"}`)
	})

	ok := EnsureIndex(context.Background(), client, businessIndexCfg(), BusinessTemplate, zap.NewNop(), "商家")
	assert.True(t, ok)
	require.Equal(t, []string{"HEAD /businesses", "PUT /businesses"}, fc.methods())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(fc.requests[1].Body, &body))
	assert.Contains(t, body, "mappings")
	assert.EqualValues(t, 3, body["settings"].(map[string]interface{})["number_of_shards"])
}

func TestEnsureIndex_CreateFailureIsSwallowed(t *testing.T) {
	_, client := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"illegal_argument_exception"}}`)
	})

	assert.NotPanics(t, func() {
		ok := EnsureIndex(context.Background(), client, businessIndexCfg(), BusinessTemplate, zap.NewNop(), "商家")
		assert.False(t, ok)
	})
}

func TestEnsureIndex_AlreadyExistsRaceIsSuccess(t *testing.T) {
	_, client := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"resource_already_exists_exception"}}`)
	})

	assert.True(t, EnsureIndex(context.Background(), client, businessIndexCfg(), BusinessTemplate, zap.NewNop(), "商家"))
}

func TestEnsureIndex_ExistsCheckErrorIsSwallowed(t *testing.T) {
	fc, client := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.False(t, EnsureIndex(context.Background(), client, businessIndexCfg(), BusinessTemplate, zap.NewNop(), "商家"))
	assert.Equal(t, []string{"HEAD /businesses"}, fc.methods())
}

func TestEnsureIndex_MissingNameSkipsEngine(t *testing.T) {
	fc, client := newFakeCluster(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.False(t, EnsureIndex(context.Background(), client, config.IndexSpecificConfig{}, BusinessTemplate, zap.NewNop(), "商家"))
	assert.Empty(t, fc.methods())
}

func TestNewESClient_UnreachableClusterIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := NewESClient(config.ESConfig{
		Addresses:     []string{addr},
		BusinessIndex: businessIndexCfg(),
		HotTermsIndex: config.IndexSpecificConfig{Name: "hot_terms", NumberOfShards: 1},
	}, zap.NewNop(), nil)
	require.NoError(t, err)
	require.NotNil(t, c.Client)
	assert.Equal(t, "businesses", c.BusinessIndexCfg.Name)
}
