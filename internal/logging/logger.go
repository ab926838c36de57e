// Package logging builds the process-wide zap logger: console output plus
// a lumberjack-rotated file sink under LOG_DIR, formatted as the literal
// "[TIMESTAMP] [LEVEL] [NAME] - message" line the original app/logger.py
// produced.
package logging

import (
	"fmt"
	"math"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// New builds a zap.Logger named name, writing to stdout and to a rotating
// file at path (10MB per file, 3 backups). An empty path
// disables the file sink.
func New(name, path string) (*zap.Logger, error) {
	encoder := &lineEncoder{Encoder: zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey: "msg",
	})}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(os.Stdout)), zapcore.DebugLevel),
	}
	if path != "" {
		rotator := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // MB
			MaxBackups: 3,
			Compress:   false,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...)).Named(name), nil
}

// lineEncoder renders every entry as "[TIMESTAMP] [LEVEL] [NAME] - message",
// matching the original Python logging.Formatter string verbatim. Structured
// fields (zap.Field) are appended space-separated after the message, since
// the original format has no field slots of its own.
type lineEncoder struct {
	zapcore.Encoder
}

func (e *lineEncoder) Clone() zapcore.Encoder {
	return &lineEncoder{Encoder: e.Encoder.Clone()}
}

func (e *lineEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := buffer.NewPool().Get()
	fmt.Fprintf(line, "[%s] [%s] [%s] - %s", ent.Time.Format("2006-01-02 15:04:05"), levelName(ent.Level), ent.LoggerName, ent.Message)
	for _, f := range fields {
		fmt.Fprintf(line, " %s=%v", f.Key, fieldValue(f))
	}
	line.AppendString("\n")
	return line, nil
}

func fieldValue(f zapcore.Field) interface{} {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.Int64Type, zapcore.Int32Type:
		return f.Integer
	case zapcore.Float64Type:
		return math.Float64frombits(uint64(f.Integer))
	case zapcore.BoolType:
		return f.Integer == 1
	case zapcore.DurationType:
		return time.Duration(f.Integer)
	default:
		return f.Interface
	}
}

func levelName(l zapcore.Level) string {
	switch l {
	case zapcore.DebugLevel:
		return "DEBUG"
	case zapcore.InfoLevel:
		return "INFO"
	case zapcore.WarnLevel:
		return "WARNING"
	case zapcore.ErrorLevel:
		return "ERROR"
	default:
		return "CRITICAL"
	}
}
