package log

import (
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// typeEmoji 日志 "type" 字段到表情符号的映射
var typeEmoji = map[string]string{
	"request":      "🌐",
	"gateway":      "🚪",
	"breaker":      "⚡",
	"job":          "🔎",
	"scheduler":    "🎯",
	"database":     "💾",
	"redis":        "📦",
	"security":     "🔒",
	"startup":      "🚀",
	"slow_request": "🐌",
}

// jobStatusEmoji 搜索任务状态，优先于 "job" 类型的通用符号
var jobStatusEmoji = map[string]string{
	"queued":     "⏳",
	"processing": "🔄",
	"completed":  "✅",
	"failed":     "❌",
	"cancelled":  "🚫",
}

// breakerStateEmoji 熔断器迁移的目标状态
var breakerStateEmoji = map[string]string{
	"closed":    "🔌",
	"open":      "⛔",
	"half_open": "🔁",
}

var levelEmoji = map[zapcore.Level]string{
	zapcore.DebugLevel:  "🐛",
	zapcore.InfoLevel:   "ℹ️",
	zapcore.WarnLevel:   "⚠️",
	zapcore.ErrorLevel:  "❌",
	zapcore.DPanicLevel: "❌",
	zapcore.PanicLevel:  "❌",
	zapcore.FatalLevel:  "❌",
}

// statusEmoji 根据 HTTP 状态码返回表情符号
func statusEmoji(status int) string {
	switch {
	case status >= 500:
		return "🔴"
	case status >= 400:
		return "🟠"
	case status >= 300:
		return "🟡"
	}
	return "🟢"
}

// EmojiConsoleEncoder 包装 ConsoleEncoder，在消息前加表情符号
type EmojiConsoleEncoder struct {
	zapcore.Encoder
	config zapcore.EncoderConfig
}

// NewEmojiConsoleEncoder 创建带表情符号的控制台编码器
func NewEmojiConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &EmojiConsoleEncoder{
		Encoder: zapcore.NewConsoleEncoder(cfg),
		config:  cfg,
	}
}

// entryTags 是选择表情符号时关心的字段
type entryTags struct {
	logType   string
	status    int64
	jobStatus string
	breakerTo string
}

func collectTags(fields []zapcore.Field) entryTags {
	var tags entryTags
	for _, f := range fields {
		switch {
		case f.Key == "status" && (f.Type == zapcore.Int64Type || f.Type == zapcore.Int32Type):
			tags.status = f.Integer
		case f.Type != zapcore.StringType:
		case f.Key == "type":
			tags.logType = f.String
		case f.Key == "job_status":
			tags.jobStatus = f.String
		case f.Key == "to":
			tags.breakerTo = f.String
		}
	}
	return tags
}

// pickEmoji 优先级: HTTP 状态码 > 任务状态 > 熔断目标状态 > type > 日志级别
func pickEmoji(level zapcore.Level, tags entryTags) string {
	if tags.status > 0 {
		return statusEmoji(int(tags.status))
	}
	switch tags.logType {
	case "job":
		if e, ok := jobStatusEmoji[tags.jobStatus]; ok {
			return e
		}
	case "breaker":
		if e, ok := breakerStateEmoji[tags.breakerTo]; ok {
			return e
		}
	}
	if e, ok := typeEmoji[tags.logType]; ok {
		return e
	}
	return levelEmoji[level]
}

// EncodeEntry 编码日志条目，自动添加表情符号
func (enc *EmojiConsoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if emoji := pickEmoji(entry.Level, collectTags(fields)); emoji != "" {
		entry.Message = emoji + " " + entry.Message
	}
	return enc.Encoder.EncodeEntry(entry, fields)
}

// Clone 克隆编码器（Zap 内部使用）
func (enc *EmojiConsoleEncoder) Clone() zapcore.Encoder {
	return &EmojiConsoleEncoder{
		Encoder: enc.Encoder.Clone(),
		config:  enc.config,
	}
}
