// Package mqttlink mirrors the LED controller onto an MQTT broker:
// retained "led/state" goes out as JSON on <prefix>/led/state and
// payloads received on <prefix>/led/set become "led/control/set" requests.
package mqttlink

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"uartled-go/bus"
	"uartled-go/drivers/ledboard"
	"uartled-go/services/ledctl"
	"uartled-go/types"
)

// DefaultPrefix is the topic prefix when none is configured.
const DefaultPrefix = "uartled"

const (
	connectTimeout = 5 * time.Second
	requestTimeout = time.Second
)

// Config selects the broker and topic layout.
type Config struct {
	BrokerURL string // e.g. tcp://localhost:1883
	Prefix    string
	ClientID  string
	QoS       byte
}

// client is the part of paho.Client the link uses.
type client interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// Link bridges one bus connection and one MQTT client.
type Link struct {
	conn   *bus.Connection
	client client
	cfg    Config
	sets   chan []byte
}

// DefaultClientID derives a stable client id from the host's machine id.
func DefaultClientID() string {
	id, err := machineid.ProtectedID(DefaultPrefix)
	if err != nil {
		return DefaultPrefix + "-" + time.Now().Format("150405")
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return DefaultPrefix + "-" + id
}

// New builds a Link with a paho client for cfg. Nothing is dialled yet.
func New(conn *bus.Connection, cfg Config) (*Link, error) {
	if cfg.BrokerURL == "" {
		return nil, errors.New("mqttlink: broker url is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID()
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			glog.Warningf("mqtt connection lost: %v", err)
		}).
		SetOnConnectHandler(func(paho.Client) {
			glog.Info("mqtt connected")
		})
	return newLink(conn, paho.NewClient(opts), cfg), nil
}

func newLink(conn *bus.Connection, c client, cfg Config) *Link {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	cfg.Prefix = strings.TrimSuffix(cfg.Prefix, "/")
	return &Link{conn: conn, client: c, cfg: cfg, sets: make(chan []byte, 8)}
}

func (l *Link) stateTopic() string { return l.cfg.Prefix + "/led/state" }
func (l *Link) setTopic() string   { return l.cfg.Prefix + "/led/set" }

func wait(t paho.Token) error {
	if !t.WaitTimeout(connectTimeout) {
		return errors.New("mqttlink: timeout")
	}
	return t.Error()
}

// Run connects and bridges until ctx is cancelled.
func (l *Link) Run(ctx context.Context) error {
	if err := wait(l.client.Connect()); err != nil {
		return err
	}
	defer l.client.Disconnect(250)

	err := wait(l.client.Subscribe(l.setTopic(), l.cfg.QoS, func(_ paho.Client, m paho.Message) {
		select {
		case l.sets <- append([]byte(nil), m.Payload()...):
		default:
			glog.Warningf("mqtt %s: dropping set, queue full", m.Topic())
		}
	}))
	if err != nil {
		return err
	}
	glog.V(1).Infof("mqtt SUB %q", l.setTopic())

	stateSub := l.conn.Subscribe(ledctl.TopicState)
	defer l.conn.Unsubscribe(stateSub)

	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-stateSub.Channel():
			if !ok {
				return nil
			}
			st, ok := m.Payload.(types.LEDState)
			if !ok {
				continue
			}
			l.publishState(st)
		case p := <-l.sets:
			l.handleSet(ctx, p)
		}
	}
}

func (l *Link) publishState(st types.LEDState) {
	b, err := json.Marshal(st)
	if err != nil {
		glog.Errorf("mqtt encode state: %v", err)
		return
	}
	// Fire and forget; paho retries while reconnecting.
	l.client.Publish(l.stateTopic(), l.cfg.QoS, true, b)
}

func (l *Link) handleSet(ctx context.Context, payload []byte) {
	level, err := ParseSetPayload(payload)
	if err != nil {
		glog.Warningf("mqtt %s: ignoring %q: %v", l.setTopic(), payload, err)
		return
	}
	rctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	reply, err := l.conn.RequestWait(rctx, l.conn.NewMessage(ledctl.TopicSet, types.LEDSet{Level: level}, false))
	if err != nil {
		glog.Warningf("led set: %v", err)
		return
	}
	if r, ok := reply.Payload.(types.Reply); ok && !r.OK {
		glog.Warningf("led set rejected: %s", r.Error)
	}
}

// ParseSetPayload accepts on/off words, the command bytes b/s, or JSON
// {"level": bool}.
func ParseSetPayload(p []byte) (bool, error) {
	s := strings.TrimSpace(string(p))
	if strings.HasPrefix(s, "{") {
		var req types.LEDSet
		if err := json.Unmarshal([]byte(s), &req); err != nil {
			return false, err
		}
		return req.Level, nil
	}
	b, err := ledboard.ParseCommand(s)
	if err != nil {
		return false, err
	}
	level, _ := ledboard.LevelOf(b)
	return level, nil
}
