package models

// 以下结构体仅用于 Swagger 文档生成：swag 无法解析泛型的 response.APIResponse[T]。
// 字段需与 gateway/pkg/response 实际输出的 JSON 保持一致。

type SwaggerSearchResultResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Data    SearchResult `json:"data,omitempty"`
}

type SwaggerSuggestResponse struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Data    []string `json:"data,omitempty"`
}

type SwaggerHotSearchTermsResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    []HotSearchTerm `json:"data,omitempty"`
}

type SwaggerWriteResultResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    WriteResult `json:"data,omitempty"`
}

type SwaggerErrorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type SwaggerHealthCheckResponse struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
