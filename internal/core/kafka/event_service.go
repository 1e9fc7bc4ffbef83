package kafka

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/internal/models"
	"github.com/Xushengqwer/business_search/internal/service"
)

var (
	ErrInvalidBusinessID  = errors.New("无效的商家ID")
	ErrInvalidEventFormat = errors.New("无效的事件格式或缺少关键数据")
	ErrMissingSnapshot    = errors.New("事件缺少商家快照且无法从目录服务加载")
)

// DocumentIndexer 是 EventService 依赖的索引写操作，由 service.SearchService 实现。
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, record models.BusinessRecord) models.Outcome[bool]
	UpdateDocument(ctx context.Context, id string, record models.BusinessRecord) models.Outcome[bool]
	DeleteDocument(ctx context.Context, id string) models.Outcome[bool]
	ReindexFromDirectory(ctx context.Context, id string) models.Outcome[bool]
}

// EventService 把商家生命周期事件转换为索引写操作。
// 写入失败（Outcome 降级）会以错误的形式返回，交给 Handler 重试或送入 DLQ。
type EventService struct {
	indexer DocumentIndexer
	logger  *zap.Logger
}

// NewEventService 创建 EventService。
// 参数:
//   - indexer: 负责写入和删除搜索文档的服务，通常是 *service.SearchService。
//   - logger: zap.Logger 实例。
//
// 依赖为 nil 时直接 panic。
func NewEventService(indexer DocumentIndexer, logger *zap.Logger) *EventService {
	if indexer == nil {
		panic("致命错误 [事件服务]: DocumentIndexer 依赖注入失败，实例不能为 nil")
	}
	if logger == nil {
		panic("致命错误 [事件服务]: Logger 依赖注入失败，实例不能为 nil")
	}
	return &EventService{
		indexer: indexer,
		logger:  logger,
	}
}

// HandleBusinessPublished 处理商家进入公开状态的事件。
func (s *EventService) HandleBusinessPublished(ctx context.Context, event models.BusinessPublishedEvent) error {
	id, err := resolveBusinessID(event.BusinessID, event.Business)
	if err != nil {
		return err
	}
	s.logger.Info("开始处理商家公开事件", zap.String("event_id", event.EventID), zap.String("business_id", id))

	if event.Business == nil {
		return s.reindex(ctx, event.EventID, id)
	}
	return outcomeErr(s.indexer.IndexDocument(ctx, *event.Business), "索引商家", id)
}

// HandleBusinessUpdated 处理已公开商家发生变更的事件。
func (s *EventService) HandleBusinessUpdated(ctx context.Context, event models.BusinessUpdatedEvent) error {
	id, err := resolveBusinessID(event.BusinessID, event.Business)
	if err != nil {
		return err
	}
	s.logger.Info("开始处理商家更新事件", zap.String("event_id", event.EventID), zap.String("business_id", id))

	if event.Business == nil {
		return s.reindex(ctx, event.EventID, id)
	}
	return outcomeErr(s.indexer.UpdateDocument(ctx, id, *event.Business), "更新商家", id)
}

// HandleBusinessRemoved 处理商家下线或被删除的事件。
func (s *EventService) HandleBusinessRemoved(ctx context.Context, event models.BusinessRemovedEvent) error {
	if event.BusinessID == "" {
		return fmt.Errorf("处理商家移除事件失败 (event_id: %s): %w", event.EventID, ErrInvalidBusinessID)
	}
	s.logger.Info("开始处理商家移除事件",
		zap.String("event_id", event.EventID),
		zap.String("business_id", event.BusinessID),
		zap.String("reason", event.Reason),
	)
	return outcomeErr(s.indexer.DeleteDocument(ctx, event.BusinessID), "删除商家", event.BusinessID)
}

// reindex 在事件未携带快照时，从目录服务加载记录后同步。
func (s *EventService) reindex(ctx context.Context, eventID, id string) error {
	s.logger.Debug("事件未携带商家快照，改为从目录服务加载", zap.String("event_id", eventID), zap.String("business_id", id))
	out := s.indexer.ReindexFromDirectory(ctx, id)
	if errors.Is(out.Err, service.ErrNoRecordLoader) {
		return fmt.Errorf("商家 %s: %w", id, ErrMissingSnapshot)
	}
	return outcomeErr(out, "从目录同步商家", id)
}

// resolveBusinessID 优先使用事件上的 ID，缺失时回退到快照中的 ID。
func resolveBusinessID(eventID string, record *models.BusinessRecord) (string, error) {
	switch {
	case eventID != "":
		return eventID, nil
	case record != nil && record.ID != "":
		return record.ID, nil
	default:
		return "", ErrInvalidBusinessID
	}
}

func outcomeErr(out models.Outcome[bool], op, id string) error {
	switch {
	case out.IsDegraded():
		return fmt.Errorf("%s %s 失败: %w", op, id, out.Err)
	case !out.Value:
		return fmt.Errorf("%s %s 失败", op, id)
	}
	return nil
}
