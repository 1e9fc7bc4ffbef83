package models

import "time"

// BusinessPublishedEvent 由商家生命周期组件在商家进入公开可见状态时发送。
// Business 为空时，消费者会通过目录服务按 BusinessID 重新加载记录。
type BusinessPublishedEvent struct {
	EventID    string          `json:"event_id"`
	BusinessID string          `json:"business_id"`
	Business   *BusinessRecord `json:"business,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// BusinessUpdatedEvent 在已公开的商家发生变更时发送。
type BusinessUpdatedEvent struct {
	EventID    string          `json:"event_id"`
	BusinessID string          `json:"business_id"`
	Business   *BusinessRecord `json:"business,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// BusinessRemovedEvent 在公开商家被下线（转为非公开状态）或被永久删除时发送。
type BusinessRemovedEvent struct {
	EventID    string    `json:"event_id"`
	BusinessID string    `json:"business_id"`
	Reason     string    `json:"reason"` // "unpublished" 或 "deleted"，仅用于日志
	OccurredAt time.Time `json:"occurred_at"`
}
