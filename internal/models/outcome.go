package models

// Outcome 包装一次可降级操作的结果。
// Err 非 nil 表示引擎调用失败，此时 Value 是文档约定的降级值（空结果、false 等）；
// 调用方可以照常使用 Value，测试则可以区分"健康但为空"与"降级"。
type Outcome[T any] struct {
	Value T
	Err   error
}

// Succeeded 构造一个成功的结果。
func Succeeded[T any](value T) Outcome[T] {
	return Outcome[T]{Value: value}
}

// Degraded 构造一个携带降级值与原始错误的结果。
func Degraded[T any](fallback T, err error) Outcome[T] {
	return Outcome[T]{Value: fallback, Err: err}
}

// IsDegraded 判断结果是否来自降级路径。
func (o Outcome[T]) IsDegraded() bool {
	return o.Err != nil
}
