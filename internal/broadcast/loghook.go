package broadcast

import (
	"context"
	"strings"
	"time"

	"fan_controller/internal/logger"
	"fan_controller/internal/models"

	"go.uber.org/zap/zapcore"
)

const defaultLogBuffer = 256

// LogForwarder turns log entries into live "log" events.
// Entries are rendered and queued by the core returned from Core and
// published by Run; a full queue drops entries so logging never waits on
// slow subscribers.
type LogForwarder struct {
	b        *Broadcaster
	minLevel zapcore.Level
	queue    chan models.LogEntry
}

func NewLogForwarder(b *Broadcaster, minLevel zapcore.Level, buffer int) *LogForwarder {
	if buffer <= 0 {
		buffer = defaultLogBuffer
	}
	return &LogForwarder{b: b, minLevel: minLevel, queue: make(chan models.LogEntry, buffer)}
}

// Core returns a zapcore.Core that feeds f. Tee it next to the console core.
func (f *LogForwarder) Core() zapcore.Core {
	return &forwardCore{LevelEnabler: f.minLevel, enc: newMessageEncoder(), f: f}
}

// Run publishes queued entries until ctx is done.
func (f *LogForwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-f.queue:
			_ = f.b.Broadcast(models.Event{Type: models.EventLog, Data: e})
		}
	}
}

func (f *LogForwarder) enqueue(e models.LogEntry) {
	select {
	case f.queue <- e:
	default:
	}
}

// newMessageEncoder renders only the message and the key-value context:
// time and level travel as separate LogEntry fields.
func newMessageEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "msg",
		LineEnding:     "\n",
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
	})
}

type forwardCore struct {
	zapcore.LevelEnabler
	enc zapcore.Encoder
	f   *LogForwarder
}

func (c *forwardCore) With(fields []zapcore.Field) zapcore.Core {
	enc := c.enc.Clone()
	for i := range fields {
		fields[i].AddTo(enc)
	}
	return &forwardCore{LevelEnabler: c.LevelEnabler, enc: enc, f: c.f}
}

func (c *forwardCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *forwardCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(e, fields)
	if err != nil {
		return err
	}
	msg := strings.ReplaceAll(strings.TrimRight(buf.String(), "\n"), "\t", " ")
	buf.Free()

	c.f.enqueue(entryToLog(e, msg))
	return nil
}

func (c *forwardCore) Sync() error { return nil }

func entryToLog(e zapcore.Entry, msg string) models.LogEntry {
	return models.LogEntry{
		Time:    e.Time.UTC().Format(time.RFC3339),
		Level:   logger.LevelName(e.Level),
		Message: msg,
	}
}
