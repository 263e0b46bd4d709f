// Package bridge mirrors a hand controller onto MQTT topics
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"handctl/config"
	"handctl/logger"
	"handctl/protocol"
)

// Device is the part of a hand client the bridge drives
type Device interface {
	Channels() int
	Messages() <-chan protocol.Message
	SetPosition(id int, pos uint8) error
	Preset(n int) error
	Command(line string) error
	Refresh() error
}

// Force is the JSON payload published on <prefix>/force
type Force struct {
	Timestamp uint32 `json:"timestamp"`
	Reading   uint8  `json:"reading"`
}

// publisher is the MQTT surface the bridge needs
type publisher interface {
	publish(topic string, payload []byte) error
}

// Bridge publishes device messages and forwards MQTT commands to the device
type Bridge struct {
	cfg    config.MQTTConf
	log    *logger.Log
	device Device

	client mqtt.Client
	pub    publisher
	ctx    context.Context
}

// New creates a bridge. Start connects it.
func New(device Device, cfg config.MQTTConf, log *logger.Log) *Bridge {
	return &Bridge{
		cfg:    cfg,
		log:    log.Module("mqtt"),
		device: device,
	}
}

func (b *Bridge) topic(parts ...string) string {
	return b.cfg.Prefix + "/" + strings.Join(parts, "/")
}

// Start connects to the broker and subscribes to the command topics
func (b *Bridge) Start(ctx context.Context) error {
	if b.log.GetLevel() == "debug" {
		mqtt.ERROR = log.New(os.Stdout, "[ERROR] ", 0)
		mqtt.CRITICAL = log.New(os.Stdout, "[CRIT] ", 0)
		mqtt.WARN = log.New(os.Stdout, "[WARN]  ", 0)
	}

	b.ctx = ctx

	opts := mqtt.NewClientOptions().
		AddBroker(b.cfg.Broker).
		SetUsername(b.cfg.User).
		SetPassword(b.cfg.Password).
		SetOnConnectHandler(b.connectHandler).
		SetConnectionLostHandler(b.connectLostHandler).
		SetClientID(b.cfg.ClientID).
		SetOrderMatters(false).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	b.client = mqtt.NewClient(opts)
	b.pub = &mqttPublisher{client: b.client, qos: b.cfg.Qos, ctx: ctx}

	token := b.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return token.Error()
		}
	case <-ctx.Done():
		return errors.New("context canceled")
	}

	b.log.Infof("Status: %v", b.client.IsConnected())
	return nil
}

// Stop disconnects from the broker
func (b *Bridge) Stop() error {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(500)
	}
	return nil
}

func (b *Bridge) connectHandler(c mqtt.Client) {
	b.log.Info("client connected to server")

	topics := map[string]byte{
		b.topic("cmd", "position", "+"): b.cfg.Qos,
		b.topic("cmd", "preset"):        b.cfg.Qos,
		b.topic("cmd", "text"):          b.cfg.Qos,
	}
	token := c.SubscribeMultiple(topics, b.messageHandler)
	go func() {
		select {
		case <-b.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				b.log.Errorf("subscription error: %v", token.Error())
				return
			}
		}
		b.log.Debugf("subscribed to %d command topics", len(topics))
		if err := b.device.Refresh(); err != nil {
			b.log.Warnf("refresh: %v", err)
		}
	}()
}

func (b *Bridge) connectLostHandler(_ mqtt.Client, err error) {
	b.log.Errorf("server connect lost: %v", err)
}

func (b *Bridge) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	b.log.Debugf("received message: %q from topic: %s", msg.Payload(), msg.Topic())
	if err := b.handleCommand(msg.Topic(), msg.Payload()); err != nil {
		b.log.Warnf("topic %s: %v", msg.Topic(), err)
	}
}

// handleCommand forwards one command publication to the device
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	rest := strings.TrimPrefix(topic, b.topic("cmd")+"/")
	if rest == topic {
		return fmt.Errorf("not a command topic")
	}
	value := strings.TrimSpace(string(payload))

	switch {
	case strings.HasPrefix(rest, "position/"):
		id, err := strconv.Atoi(strings.TrimPrefix(rest, "position/"))
		if err != nil || id < 0 || id >= b.device.Channels() {
			return fmt.Errorf("invalid channel in %q", rest)
		}
		pos, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid position %q: %w", value, err)
		}
		if pos < 0 {
			pos = 0
		}
		if pos > 255 {
			pos = 255
		}
		return b.device.SetPosition(id, uint8(pos))

	case rest == "preset":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid preset %q: %w", value, err)
		}
		return b.device.Preset(n)

	case rest == "text":
		return b.device.Command(string(payload))
	}
	return fmt.Errorf("unknown command topic %q", rest)
}

// Run publishes device messages until the context ends or the device
// closes its message channel
func (b *Bridge) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-b.device.Messages():
			if !ok {
				return protocol.ErrTransportClosed
			}
			if err := b.publishMessage(msg); err != nil {
				b.log.Warnf("publish %s: %v", msg.Kind, err)
			}
		}
	}
}

// publishMessage maps one device message onto its topic
func (b *Bridge) publishMessage(msg protocol.Message) error {
	switch msg.Kind {
	case protocol.KindChannelPosition:
		return b.pub.publish(b.topic("position", strconv.Itoa(msg.Channel)), []byte(strconv.Itoa(int(msg.Position()))))

	case protocol.KindAllPositions:
		data, err := json.Marshal(toInts(msg.Payload))
		if err != nil {
			return err
		}
		return b.pub.publish(b.topic("positions"), data)

	case protocol.KindAllLimits:
		pairs := msg.Limits()
		out := make([][2]int, len(pairs))
		for i, p := range pairs {
			out[i] = [2]int{int(p.Min), int(p.Max)}
		}
		data, err := json.Marshal(out)
		if err != nil {
			return err
		}
		return b.pub.publish(b.topic("limits"), data)

	case protocol.KindForceRaw:
		r, err := msg.Reading()
		if err != nil {
			return err
		}
		data, err := json.Marshal(Force{Timestamp: r.Timestamp, Reading: r.Value})
		if err != nil {
			return err
		}
		return b.pub.publish(b.topic("force"), data)

	case protocol.KindText:
		return b.pub.publish(b.topic("log"), msg.Payload)
	}
	return nil
}

// toInts keeps json from encoding positions as base64
func toInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

type mqttPublisher struct {
	client mqtt.Client
	qos    byte
	ctx    context.Context
}

func (p *mqttPublisher) publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, false, payload)
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case <-token.Done():
		return token.Error()
	}
}
