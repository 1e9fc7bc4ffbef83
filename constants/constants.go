package constants

// 服务标识，用于追踪、指标命名空间与日志。
const (
	ServiceName    = "business_search"
	ServiceVersion = "1.0.0"
)
