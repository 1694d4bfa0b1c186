package log

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
)

// LogHelper 扩展 Kratos log.Helper，提供便捷的日志方法
// 通过在日志调用时自动添加 "type" 字段，触发 EmojiConsoleEncoder 的表情符号映射
type LogHelper struct {
	*log.Helper
}

// NewLogHelper 创建增强的日志辅助器
func NewLogHelper(logger log.Logger) *LogHelper {
	return &LogHelper{
		Helper: log.NewHelper(logger),
	}
}

func withType(msg, logType string, kvs []interface{}) []interface{} {
	allKvs := make([]interface{}, 0, len(kvs)+4)
	allKvs = append(allKvs, "msg", msg)
	allKvs = append(allKvs, kvs...)
	return append(allKvs, "type", logType)
}

// Gateway 记录网关转发相关日志（🚪）
func (h *LogHelper) Gateway(msg string, kvs ...interface{}) {
	h.Infow(withType(msg, "gateway", kvs)...)
}

// Breaker 记录熔断器状态变化（⚡）
// 进入 open 时使用 Warn 级别，其它状态使用 Info
func (h *LogHelper) Breaker(name, from, to string, kvs ...interface{}) {
	msg := fmt.Sprintf("Circuit breaker %s: %s -> %s", name, from, to)
	allKvs := withType(msg, "breaker", append(kvs, "breaker", name, "from", from, "to", to))
	if to == "open" {
		h.Warnw(allKvs...)
		return
	}
	h.Infow(allKvs...)
}

// Job 记录搜索任务状态变化（🔎）
func (h *LogHelper) Job(ctx context.Context, msg, jobID, status string, kvs ...interface{}) {
	reqCtx := GetRequestContext(ctx)
	h.Infow(withType(fmt.Sprintf("[%s] %s", reqCtx.RequestID, msg), "job",
		append(kvs, "request_id", reqCtx.RequestID, "job_id", jobID, "job_status", status))...)
}

// Probe 记录依赖健康探测结果（🎯）
func (h *LogHelper) Probe(dependency string, healthy bool, kvs ...interface{}) {
	state := "healthy"
	if !healthy {
		state = "unavailable"
	}
	allKvs := withType(fmt.Sprintf("Dependency %s is %s", dependency, state), "scheduler",
		append(kvs, "dependency", dependency, "healthy", healthy))
	if !healthy {
		h.Warnw(allKvs...)
		return
	}
	h.Debugw(allKvs...)
}

// Database 记录数据库操作日志（💾）
func (h *LogHelper) Database(msg string, kvs ...interface{}) {
	h.Debugw(withType(msg, "database", kvs)...)
}

// Redis 记录 Redis 操作日志（📦）
func (h *LogHelper) Redis(msg string, kvs ...interface{}) {
	h.Debugw(withType(msg, "redis", kvs)...)
}

// Security 记录服务凭证校验失败等安全日志（🔒）
func (h *LogHelper) Security(msg string, kvs ...interface{}) {
	h.Warnw(withType(msg, "security", kvs)...)
}

// Startup 记录启动相关日志（🚀）
func (h *LogHelper) Startup(msg string, kvs ...interface{}) {
	h.Infow(withType(msg, "startup", kvs)...)
}

// SlowRequest 记录慢请求警告（🐌）
func (h *LogHelper) SlowRequest(ctx context.Context, method, url string, duration, threshold int64, kvs ...interface{}) {
	reqCtx := GetRequestContext(ctx)
	msg := fmt.Sprintf("[%s] Slow request detected | %s %s | %dms (threshold: %dms)",
		reqCtx.RequestID, method, url, duration, threshold)
	h.Warnw(withType(msg, "slow_request", append(kvs,
		"request_id", reqCtx.RequestID,
		"method", method,
		"url", url,
		"duration_ms", duration,
		"threshold_ms", threshold,
	))...)
}

// RequestWithContext 记录带 Context 的 HTTP 请求日志，并检测慢请求
func (h *LogHelper) RequestWithContext(ctx context.Context, method, url string, status int, durationMs, slowThresholdMs int64, kvs ...interface{}) {
	reqCtx := GetRequestContext(ctx)
	msg := fmt.Sprintf("%s %s - %d (%dms) | RequestID: %s", method, url, status, durationMs, reqCtx.RequestID)

	allKvs := withType(msg, "request", append(kvs,
		"request_id", reqCtx.RequestID,
		"operation", reqCtx.Operation,
		"method", method,
		"url", url,
		"status", status,
		"duration_ms", durationMs,
	))
	if status >= 500 {
		h.Errorw(allKvs...)
	} else {
		h.Infow(allKvs...)
	}

	if slowThresholdMs > 0 && durationMs > slowThresholdMs {
		h.SlowRequest(ctx, method, url, durationMs, slowThresholdMs)
	}
}
