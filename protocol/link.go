package protocol

import (
	"errors"
	"io"
	"sync"
	"time"
)

// ByteWriter is the transmit half of the byte transport capability.
// WriteByte is only called after WriteReady reported capacity.
type ByteWriter interface {
	WriteReady() bool
	WriteByte(b byte) error
}

// ByteReader is the receive half of the byte transport capability.
// ReadByte blocks until a byte is available; implementations with a
// receive timeout return ErrReceiveTimeout.
type ByteReader interface {
	ReadByte() (byte, error)
}

// ByteTransport is a reliable, ordered, byte-blocking link
type ByteTransport interface {
	ByteReader
	ByteWriter
}

// Flusher is implemented by writers that stage bytes before transmitting
type Flusher interface {
	Flush() error
}

// TxBuffer stages outgoing bytes in a FIFO and hands them to an io.Writer
// on Flush, or when the FIFO fills up.
type TxBuffer struct {
	w    io.Writer
	fifo *FifoBuffer
	err  error
}

// NewTxBuffer creates a TxBuffer holding up to size-1 bytes
func NewTxBuffer(w io.Writer, size int) *TxBuffer {
	return &TxBuffer{w: w, fifo: NewFifoBuffer(size)}
}

// WriteReady reports whether one more byte fits. A full buffer is flushed
// first; a failed flush leaves it full.
func (t *TxBuffer) WriteReady() bool {
	if t.fifo.Free() == 0 {
		t.err = t.Flush()
	}
	return t.fifo.Free() > 0
}

func (t *TxBuffer) WriteByte(b byte) error {
	if t.err != nil {
		err := t.err
		t.err = nil
		return err
	}
	if !t.fifo.PushByte(b) {
		return ErrTransportStall
	}
	return nil
}

// Flush writes all staged bytes
func (t *TxBuffer) Flush() error {
	for !t.fifo.IsEmpty() {
		n, err := t.w.Write(t.fifo.Data())
		t.fifo.Pop(n)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
	}
	return nil
}

// LinkConfig tunes a StreamLink
type LinkConfig struct {
	// TxBuffer is the transmit staging capacity in bytes
	TxBuffer int

	// ReceiveTimeout bounds ReadByte; 0 waits forever
	ReceiveTimeout time.Duration
}

// StreamLink adapts an io.ReadWriter (a serial port, a pipe) into a
// ByteTransport. A background goroutine owns all reads from the stream.
type StreamLink struct {
	*TxBuffer

	r       io.Reader
	timeout time.Duration

	rx      chan []byte
	pending []byte

	errMu   sync.Mutex
	readErr error
}

// NewStreamLink creates a link and starts its reader
func NewStreamLink(rw io.ReadWriter, cfg LinkConfig) *StreamLink {
	if cfg.TxBuffer <= 0 {
		cfg.TxBuffer = MessageMax + 1
	}
	l := &StreamLink{
		TxBuffer: NewTxBuffer(rw, cfg.TxBuffer),
		r:        rw,
		timeout:  cfg.ReceiveTimeout,
		rx:       make(chan []byte, 16),
	}
	go l.readLoop()
	return l
}

func (l *StreamLink) readLoop() {
	defer close(l.rx)
	for {
		buf := make([]byte, 256)
		n, err := l.r.Read(buf)
		if n > 0 {
			l.rx <- buf[:n]
		}
		if err != nil {
			l.errMu.Lock()
			l.readErr = err
			l.errMu.Unlock()
			return
		}
	}
}

// ReadByte returns the next received byte
func (l *StreamLink) ReadByte() (byte, error) {
	if len(l.pending) == 0 {
		if err := l.fill(); err != nil {
			return 0, err
		}
	}
	b := l.pending[0]
	l.pending = l.pending[1:]
	return b, nil
}

func (l *StreamLink) fill() error {
	var timeout <-chan time.Time
	if l.timeout > 0 {
		timer := time.NewTimer(l.timeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case chunk, ok := <-l.rx:
		if !ok {
			return l.closedErr()
		}
		l.pending = chunk
		return nil
	case <-timeout:
		return ErrReceiveTimeout
	}
}

func (l *StreamLink) closedErr() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	if l.readErr == nil || errors.Is(l.readErr, io.EOF) {
		return ErrTransportClosed
	}
	return l.readErr
}
