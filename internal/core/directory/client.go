// Package directory 通过商家目录的 REST 接口按 ID 加载完整的商家记录。
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/Xushengqwer/business_search/config"
	"github.com/Xushengqwer/business_search/internal/metrics"
	"github.com/Xushengqwer/business_search/internal/models"
)

const breakerName = "directory"

// ErrBusinessNotFound 表示目录中不存在该商家。
var ErrBusinessNotFound = models.ErrBusinessNotFound

// ErrCircuitOpen 表示熔断器处于打开状态，请求被直接拒绝。
var ErrCircuitOpen = gobreaker.ErrOpenState

// Client 是目录服务的 HTTP 客户端，所有请求都经过熔断器。
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*models.BusinessRecord]
	logger     *zap.Logger
}

// NewClient 创建目录客户端。transport 为 nil 时使用 otelhttp 包装的默认传输层。
func NewClient(cfg config.DirectoryConfig, transport http.RoundTripper, logger *zap.Logger) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("目录服务地址无效 (%q): %w", cfg.BaseURL, err)
	}
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	failures := cfg.Breaker.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}

	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// 404 不计入失败次数。
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrBusinessNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("熔断器状态变化",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerState(name, to)
		},
	}
	metrics.SetBreakerState(breakerName, gobreaker.StateClosed)

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Transport: transport, Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[*models.BusinessRecord](settings),
		logger:     logger,
	}, nil
}

// LoadBusiness 加载商家记录，嵌套的多语言条目、分类、联系方式与地址都已解析。
func (c *Client) LoadBusiness(ctx context.Context, id string) (*models.BusinessRecord, error) {
	if id == "" {
		return nil, errors.New("商家 ID 不能为空")
	}
	record, err := c.breaker.Execute(func() (*models.BusinessRecord, error) {
		return c.fetch(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, ErrBusinessNotFound) {
			c.logger.Warn("从目录服务加载商家失败", zap.String("business_id", id), zap.Error(err))
		}
		return nil, err
	}
	return record, nil
}

func (c *Client) fetch(ctx context.Context, id string) (*models.BusinessRecord, error) {
	endpoint := c.baseURL + "/api/businesses/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("创建目录请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求目录服务失败: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("商家 %s: %w", id, ErrBusinessNotFound)
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("目录服务返回错误 %d: %s", resp.StatusCode, string(body))
	}

	var record models.BusinessRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("解码目录服务响应失败: %w", err)
	}
	if record.ID == "" {
		record.ID = id
	}
	return &record, nil
}

// State 返回熔断器当前状态。
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
