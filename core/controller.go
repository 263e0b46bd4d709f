package core

import (
	"context"
	"errors"
	"fmt"

	"handctl/protocol"
)

// Controller is the single-threaded device loop: read at most one message,
// dispatch it, then emit telemetry when it is due.
//
// Text chunks are joined into command lines. A full 128-byte chunk is held
// until the next chunk, a structured message or a receive timeout ends it.
type Controller struct {
	link       protocol.ByteReader
	enc        *protocol.Encoder
	decoder    *protocol.Decoder
	text       protocol.TextAssembler
	dispatcher *Dispatcher
	clock      Clock
	log        Logger

	// held is a structured message that arrived behind held text
	held    protocol.Message
	hasHeld bool

	lastTelemetry uint32
}

// NewController creates a controller reading from link and replying via enc
func NewController(link protocol.ByteReader, enc *protocol.Encoder, d *Dispatcher, clock Clock, log Logger) *Controller {
	if clock == nil {
		clock = NewBootClock()
	}
	return &Controller{
		link:       link,
		enc:        enc,
		decoder:    protocol.NewDecoder(enc.Layout()),
		dispatcher: d,
		clock:      clock,
		log:        orNop(log),
	}
}

// Dispatcher returns the dispatcher in use
func (c *Controller) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// Start sends the ready banner
func (c *Controller) Start() error {
	c.lastTelemetry = c.clock.Millis()
	banner := "handctl " + protocol.Version + " ready, " + itoa(c.enc.Layout().Channels()) + " channels"
	c.log.Infof("%s", banner)
	return c.enc.SendText(banner)
}

// Step handles at most one incoming message and then any due telemetry.
// Only a closed transport or a cancelled context is returned; everything
// else is logged and the loop continues.
func (c *Controller) Step(ctx context.Context) error {
	msg, ok, err := c.receive(ctx)
	if err != nil {
		return err
	}
	if ok {
		c.log.Debugf("rx %v", msg)
		if err := c.dispatcher.Handle(msg); err != nil {
			if errors.Is(err, protocol.ErrTransportClosed) {
				return err
			}
			c.log.Warnf("handle %s: %v", msg.Kind, err)
		}
	}
	return c.telemetry()
}

// receive reads bytes until one message completes or the link times out
func (c *Controller) receive(ctx context.Context) (protocol.Message, bool, error) {
	if c.hasHeld {
		c.hasHeld = false
		return c.held, true, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return protocol.Message{}, false, err
		}

		b, err := c.link.ReadByte()
		if err != nil {
			if errors.Is(err, protocol.ErrReceiveTimeout) {
				if c.decoder.Pending() {
					c.log.Warnf("receive timeout mid-message, discarding partial frame")
					c.decoder.Reset()
				}
				if s, ok := c.text.Flush(); ok {
					return protocol.NewTextMessage(s), true, nil
				}
				return protocol.Message{}, false, nil
			}
			return protocol.Message{}, false, fmt.Errorf("receive: %w", err)
		}

		msg, done, err := c.decoder.Feed(b)
		if err != nil {
			c.log.Warnf("%v", err)
			if err := c.enc.SendText(fmt.Sprintf("Unknown opcode: 0x%02x", b)); err != nil {
				c.log.Warnf("diagnostic: %v", err)
			}
			continue
		}
		if !done {
			continue
		}

		if msg.Kind == protocol.KindText {
			if s, ok := c.text.Push(msg.Payload); ok {
				return protocol.NewTextMessage(s), true, nil
			}
			continue
		}
		if s, ok := c.text.Flush(); ok {
			c.held, c.hasHeld = msg, true
			return protocol.NewTextMessage(s), true, nil
		}
		return msg, true, nil
	}
}

func (c *Controller) telemetry() error {
	on, interval := c.dispatcher.Telemetry()
	if !on {
		return nil
	}
	now := c.clock.Millis()
	if now-c.lastTelemetry < interval {
		return nil
	}
	c.lastTelemetry = now
	if err := c.dispatcher.sendReading(); err != nil {
		if errors.Is(err, protocol.ErrTransportClosed) {
			return err
		}
		c.log.Warnf("telemetry: %v", err)
	}
	return nil
}

// Run calls Step until the context ends or the transport closes
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := c.Step(ctx); err != nil {
			return err
		}
	}
}
