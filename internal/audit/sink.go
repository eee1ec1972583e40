// Package audit appends the human-readable payment log: one
// "[<timestamp>] <message>" line per event.
package audit

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Banner and Stopped bracket a service run in the log.
const (
	Banner  = "Payment Service is running..."
	Stopped = "Payment Service stopped"
)

// Sink records one audit event.
type Sink interface {
	Record(message string)
}

// Event messages.
func Denied(reason string) string { return "PAYMENT DENIED: " + reason }

func Approved(paymentID, rawAmount string) string {
	return fmt.Sprintf("PAYMENT APPROVED: %s, amount=%s", paymentID, rawAmount)
}

func PaymentError(reason string) string { return "PAYMENT ERROR: " + reason }

func ReceiptFound(paymentID string) string { return "RECEIPT FOUND: payment_id=" + paymentID }

func ReceiptError(reason string) string { return "RECEIPT ERROR: " + reason }

// FileSink writes audit lines through a zap core with a bracketed time encoder.
type FileSink struct {
	logger *zap.Logger
	closer io.Closer
	once   sync.Once
}

// NewFileSink opens path for appending, creating it if needed.
func NewFileSink(path string, clock clockz.Clock) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	s := NewWriterSink(f, clock)
	s.closer = f
	return s, nil
}

// NewWriterSink writes audit lines to w.
func NewWriterSink(w io.Writer, clock clockz.Clock) *FileSink {
	if clock == nil {
		clock = clockz.RealClock
	}
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "msg",
		EncodeTime:       bracketTime,
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.InfoLevel)
	return &FileSink{logger: zap.New(core, zap.WithClock(zapClock{clock}))}
}

// Record appends message with the current timestamp.
func (s *FileSink) Record(message string) {
	s.logger.Info(message)
}

// Close flushes and closes the underlying file, if any.
func (s *FileSink) Close() error {
	var err error
	s.once.Do(func() {
		_ = s.logger.Sync()
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}

func bracketTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format(time.RFC3339) + "]")
}

// zapClock adapts a clockz.Clock to zapcore.Clock.
type zapClock struct {
	clock clockz.Clock
}

func (c zapClock) Now() time.Time { return c.clock.Now() }

func (c zapClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

// Nop discards every event.
type Nop struct{}

func (Nop) Record(string) {}
