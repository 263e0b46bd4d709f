package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// MessageHandler is called from the read loop for every received message
type MessageHandler func(msg Message)

// ErrorHandler is called from the read loop for decode and read errors
type ErrorHandler func(err error)

// HostTransport speaks the hand protocol from the host side of a stream.
//
// A background goroutine reads the port, decodes messages and delivers them
// to the optional handler and to a bounded channel. Consecutive text chunks
// are joined into one KindText message. When the channel is full the oldest
// message is dropped.
type HostTransport struct {
	port io.ReadWriteCloser

	tx  *TxBuffer
	enc *Encoder

	decoder *Decoder
	input   *FifoBuffer
	text    TextAssembler

	messages chan Message

	handlerMu sync.RWMutex
	handler   MessageHandler
	onError   ErrorHandler

	writeMutex sync.Mutex

	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// NewHostTransport creates a host transport for the given layout and starts
// its reader
func NewHostTransport(port io.ReadWriteCloser, layout Layout) *HostTransport {
	tx := NewTxBuffer(port, MessageMax+1)
	t := &HostTransport{
		port:     port,
		tx:       tx,
		enc:      NewEncoder(layout, tx),
		decoder:  NewDecoder(layout),
		input:    NewFifoBuffer(512),
		messages: make(chan Message, 64),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	t.enc.SetStallTimeout(2 * time.Second)

	go t.readLoop()

	return t
}

// Layout returns the opcode layout in use
func (t *HostTransport) Layout() Layout {
	return t.enc.Layout()
}

// Messages returns the channel of received messages
func (t *HostTransport) Messages() <-chan Message {
	return t.messages
}

// SetMessageHandler sets a callback for received messages
func (t *HostTransport) SetMessageHandler(h MessageHandler) {
	t.handlerMu.Lock()
	t.handler = h
	t.handlerMu.Unlock()
}

// SetErrorHandler sets a callback for decode and read errors
func (t *HostTransport) SetErrorHandler(h ErrorHandler) {
	t.handlerMu.Lock()
	t.onError = h
	t.handlerMu.Unlock()
}

// Receive waits for the next message
func (t *HostTransport) Receive(timeout time.Duration) (Message, error) {
	select {
	case msg, ok := <-t.messages:
		if !ok {
			return Message{}, ErrTransportClosed
		}
		return msg, nil
	case <-time.After(timeout):
		return Message{}, fmt.Errorf("%w after %v", ErrReceiveTimeout, timeout)
	case <-t.stopChan:
		return Message{}, ErrTransportClosed
	}
}

func (t *HostTransport) send(fn func(e *Encoder) error) error {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	select {
	case <-t.stopChan:
		return ErrTransportClosed
	default:
	}
	return fn(t.enc)
}

// SendText sends a text message
func (t *HostTransport) SendText(s string) error {
	return t.send(func(e *Encoder) error { return e.SendText(s) })
}

// SendChannelPosition sends a single channel position
func (t *HostTransport) SendChannelPosition(id int, pos uint8) error {
	return t.send(func(e *Encoder) error { return e.SendChannelPosition(id, pos) })
}

// SendAllPositions sends every channel position
func (t *HostTransport) SendAllPositions(positions []uint8) error {
	return t.send(func(e *Encoder) error { return e.SendAllPositions(positions) })
}

// SendAllLimits sends every channel's limits as flat min,max pairs
func (t *HostTransport) SendAllLimits(limits []uint8) error {
	return t.send(func(e *Encoder) error { return e.SendAllLimits(limits) })
}

// SendTimestampedReading sends a raw force reading record
func (t *HostTransport) SendTimestampedReading(r Reading) error {
	return t.send(func(e *Encoder) error { return e.SendTimestampedReading(r) })
}

func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)

	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buffer)
		if n > 0 {
			t.input.Write(buffer[:n])
			t.processInput()
		} else if err == nil {
			// Idle read; nothing else is coming for a held full chunk
			t.flushText()
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				t.flushText()
				return
			}
			select {
			case <-t.stopChan:
				return
			default:
			}
			t.reportError(err)
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (t *HostTransport) processInput() {
	t.decoder.Receive(t.input, t.handleMessage, t.reportError)
}

func (t *HostTransport) handleMessage(msg Message) {
	if msg.Kind == KindText {
		if s, ok := t.text.Push(msg.Payload); ok {
			t.dispatch(NewTextMessage(s))
		}
		return
	}
	t.flushText()
	t.dispatch(msg)
}

func (t *HostTransport) flushText() {
	if s, ok := t.text.Flush(); ok {
		t.dispatch(NewTextMessage(s))
	}
}

func (t *HostTransport) reportError(err error) {
	t.handlerMu.RLock()
	h := t.onError
	t.handlerMu.RUnlock()
	if h != nil {
		h(err)
	}
}

func (t *HostTransport) dispatch(msg Message) {
	t.handlerMu.RLock()
	h := t.handler
	t.handlerMu.RUnlock()
	if h != nil {
		h(msg)
	}

	select {
	case t.messages <- msg:
	default:
		// Channel full, drop oldest
		select {
		case <-t.messages:
		default:
		}
		select {
		case t.messages <- msg:
		default:
		}
	}
}

// Close stops the reader and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		if t.port != nil {
			err = t.port.Close()
		}
		<-t.doneChan
	})
	return err
}
