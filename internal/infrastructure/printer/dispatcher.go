package printer

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"go.uber.org/zap"
)

const dispatchChunkSize = 8192

// Dispatcher streams a rendered document to a raw-socket printer. Each
// copy goes over its own connection so the printer treats it as a separate
// job.
type Dispatcher struct {
	dialTimeout time.Duration
	logger      *zap.Logger

	dial dialFunc
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(dialTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		dialTimeout: dialTimeout,
		logger:      logger.Named("printer"),
		dial:        net.DialTimeout,
	}
}

// Dispatch streams the file at path to addr the requested number of times.
// It stops at the first failed copy.
func (d *Dispatcher) Dispatch(ctx context.Context, addr, path string, copies int) error {
	for n := 1; n <= copies; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		sent, err := d.sendCopy(addr, path)
		if err != nil {
			return fmt.Errorf("send copy %d/%d to %s: %w", n, copies, addr, err)
		}
		d.logger.Info("document sent to printer",
			zap.String("addr", addr),
			zap.Int("copy", n),
			zap.Int("copies", copies),
			zap.Int64("bytes", sent),
		)
	}
	return nil
}

// sendCopy opens the file and streams it over one connection in fixed-size
// chunks, never holding the whole document in memory.
func (d *Dispatcher) sendCopy(addr, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open document for printing: %w", err)
	}
	defer f.Close()

	conn, err := d.dial("tcp", addr, d.dialTimeout)
	if err != nil {
		return 0, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}

	sent, err := io.CopyBuffer(struct{ io.Writer }{conn}, f, make([]byte, dispatchChunkSize))
	if err != nil {
		return sent, fmt.Errorf("write: %w", err)
	}
	return sent, nil
}
