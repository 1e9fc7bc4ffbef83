package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/internal/models"
)

type fakeSearchService struct {
	mu sync.Mutex

	searchReq    models.SearchRequest
	searchOut    models.Outcome[*models.SearchResult]
	suggestArgs  []string
	suggestOut   models.Outcome[[]string]
	hotLocale    string
	hotLimit     int
	hotOut       models.Outcome[[]models.HotSearchTerm]
	logged       chan string
	writes       []string
	writeOut     models.Outcome[bool]
	indexedNames []string
}

func newFakeSearchService() *fakeSearchService {
	return &fakeSearchService{
		searchOut:  models.Succeeded(models.EmptySearchResult()),
		suggestOut: models.Succeeded([]string{}),
		hotOut:     models.Succeeded([]models.HotSearchTerm{}),
		writeOut:   models.Succeeded(true),
		logged:     make(chan string, 4),
	}
}

func (f *fakeSearchService) Search(_ context.Context, req models.SearchRequest) models.Outcome[*models.SearchResult] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchReq = req
	return f.searchOut
}

func (f *fakeSearchService) Suggest(_ context.Context, partial, locale string) models.Outcome[[]string] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestArgs = []string{partial, locale}
	return f.suggestOut
}

func (f *fakeSearchService) GetHotSearchTerms(_ context.Context, locale string, limit int) models.Outcome[[]models.HotSearchTerm] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hotLocale, f.hotLimit = locale, limit
	return f.hotOut
}

func (f *fakeSearchService) LogSearchQuery(_ context.Context, locale, query string) error {
	f.logged <- locale + "|" + query
	return nil
}

func (f *fakeSearchService) write(call string) models.Outcome[bool] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, call)
	return f.writeOut
}

func (f *fakeSearchService) IndexDocument(_ context.Context, record models.BusinessRecord) models.Outcome[bool] {
	f.mu.Lock()
	if t := record.Translation(models.LocaleEN); t != nil {
		f.indexedNames = append(f.indexedNames, t.Name)
	}
	f.mu.Unlock()
	return f.write("index:" + record.ID)
}

func (f *fakeSearchService) UpdateDocument(_ context.Context, id string, _ models.BusinessRecord) models.Outcome[bool] {
	return f.write("update:" + id)
}

func (f *fakeSearchService) DeleteDocument(_ context.Context, id string) models.Outcome[bool] {
	return f.write("delete:" + id)
}

func (f *fakeSearchService) ReindexFromDirectory(_ context.Context, id string) models.Outcome[bool] {
	return f.write("reindex:" + id)
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func newTestRouter(svc SearchService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewSearchHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api/v1/search"))
	return r
}

func do(t *testing.T, r *gin.Engine, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestSearchBusinesses_BindsAndNormalizes(t *testing.T) {
	svc := newFakeSearchService()
	svc.searchOut = models.Succeeded(&models.SearchResult{
		Businesses: []models.SearchHit{{SearchDocument: models.SearchDocument{ID: "b-1", NameEn: "Golden Dragon Restaurant"}, Score: 4.2}},
		Total:      1,
		Took:       3,
	})
	r := newTestRouter(svc)

	w, env := do(t, r, http.MethodGet, "/api/v1/search/businesses?q=golden+dragon&category=restaurants&city=Phoenix&state=AZ&locale=en&limit=500", "")
	require.Equal(t, http.StatusOK, w.Code)

	var result models.SearchResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.EqualValues(t, 1, result.Total)
	require.Len(t, result.Businesses, 1)
	assert.Equal(t, "Golden Dragon Restaurant", result.Businesses[0].NameEn)

	assert.Equal(t, "golden dragon", svc.searchReq.Query)
	assert.Equal(t, "restaurants", svc.searchReq.Category)
	assert.Equal(t, models.MaxSearchLimit, svc.searchReq.Limit)

	select {
	case got := <-svc.logged:
		assert.Equal(t, "en|golden dragon", got)
	case <-time.After(time.Second):
		t.Fatal("搜索词未被异步记录")
	}
}

func TestSearchBusinesses_DegradedStillOK(t *testing.T) {
	svc := newFakeSearchService()
	svc.searchOut = models.Degraded(models.EmptySearchResult(), errors.New("es down"))
	r := newTestRouter(svc)

	w, env := do(t, r, http.MethodGet, "/api/v1/search/businesses?q=golden+dragon", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"businesses":[],"total":0,"took":0}`, string(env.Data))

	select {
	case got := <-svc.logged:
		t.Fatalf("降级的搜索不应记录搜索词，实际记录了 %q", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSearchBusinesses_EmptyQueryNotLogged(t *testing.T) {
	svc := newFakeSearchService()
	r := newTestRouter(svc)

	w, _ := do(t, r, http.MethodGet, "/api/v1/search/businesses?city=Phoenix", "")
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case got := <-svc.logged:
		t.Fatalf("没有关键词的搜索不应记录搜索词，实际记录了 %q", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSearchBusinesses_UnsupportedLocaleFallsBack(t *testing.T) {
	svc := newFakeSearchService()
	r := newTestRouter(svc)

	w, _ := do(t, r, http.MethodGet, "/api/v1/search/businesses?locale=fr", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.LocaleEN, svc.searchReq.Locale)
}

func TestSearchBusinesses_BadLimitIs400(t *testing.T) {
	r := newTestRouter(newFakeSearchService())

	w, _ := do(t, r, http.MethodGet, "/api/v1/search/businesses?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuggest(t *testing.T) {
	svc := newFakeSearchService()
	svc.suggestOut = models.Succeeded([]string{"金龙酒楼"})
	r := newTestRouter(svc)

	w, env := do(t, r, http.MethodGet, "/api/v1/search/suggest?q=%E9%87%91%E9%BE%99&locale=zh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["金龙酒楼"]`, string(env.Data))
	assert.Equal(t, []string{"金龙", "zh"}, svc.suggestArgs)
}

func TestSuggest_DegradedReturnsEmptyList(t *testing.T) {
	svc := newFakeSearchService()
	svc.suggestOut = models.Degraded([]string{}, errors.New("es down"))
	r := newTestRouter(svc)

	w, env := do(t, r, http.MethodGet, "/api/v1/search/suggest?q=go", "")
	require.Equal(t, http.StatusOK, w.Code)
	// 响应信封的 data 带 omitempty，空列表可能被省略
	if len(env.Data) > 0 {
		assert.JSONEq(t, `[]`, string(env.Data))
	}
}

func TestGetHotSearchTerms_LimitClamp(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{"", 10},
		{"?limit=5", 5},
		{"?limit=0", 10},
		{"?limit=abc", 10},
		{"?limit=999", 50},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			svc := newFakeSearchService()
			r := newTestRouter(svc)
			w, _ := do(t, r, http.MethodGet, "/api/v1/search/hot-terms"+tc.query, "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.want, svc.hotLimit)
			assert.Equal(t, models.LocaleEN, svc.hotLocale)
		})
	}
}

func TestIndexBusiness(t *testing.T) {
	svc := newFakeSearchService()
	r := newTestRouter(svc)

	body := `{"id":"b-1","status":"published","translations":[{"language":"en","name":"Golden Dragon Restaurant"},{"language":"zh","name":"金龙酒楼"}]}`
	w, env := do(t, r, http.MethodPost, "/api/v1/search/index", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"b-1","success":true}`, string(env.Data))
	assert.Equal(t, []string{"index:b-1"}, svc.writes)
	assert.Equal(t, []string{"Golden Dragon Restaurant"}, svc.indexedNames)
}

func TestIndexBusiness_RequiresID(t *testing.T) {
	svc := newFakeSearchService()
	r := newTestRouter(svc)

	w, _ := do(t, r, http.MethodPost, "/api/v1/search/index", `{"status":"published"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.writes)

	w, _ = do(t, r, http.MethodPost, "/api/v1/search/index", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWriteRoutes_ReportFailureAsFalse(t *testing.T) {
	svc := newFakeSearchService()
	svc.writeOut = models.Degraded(false, errors.New("es down"))
	r := newTestRouter(svc)

	w, env := do(t, r, http.MethodPut, "/api/v1/search/index/b-1", `{"status":"published"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"b-1","success":false}`, string(env.Data))

	w, env = do(t, r, http.MethodDelete, "/api/v1/search/index/b-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"b-1","success":false}`, string(env.Data))

	w, env = do(t, r, http.MethodPost, "/api/v1/search/reindex/b-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"b-1","success":false}`, string(env.Data))

	assert.Equal(t, []string{"update:b-1", "delete:b-1", "reindex:b-1"}, svc.writes)
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(newFakeSearchService())

	w, env := do(t, r, http.MethodGet, "/api/v1/search/_health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}
