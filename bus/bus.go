// bus.go
package bus

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"uartled-go/errcode"
)

// -----------------------------------------------------------------------------
// Topics
// -----------------------------------------------------------------------------

const (
	// SingleWild matches exactly one topic level.
	SingleWild = "+"
	// MultiWild matches the remaining levels (zero or more). Last token only.
	MultiWild = "#"

	replyPrefix = "_reply"
)

// Topic is a sequence of path tokens, e.g. {"led", "state"}.
type Topic []string

// T builds a Topic from tokens.
func T(tokens ...string) Topic { return Topic(tokens) }

// String renders the topic with '/' separators (diagnostics only).
func (t Topic) String() string {
	n := 0
	for _, s := range t {
		n += len(s) + 1
	}
	out := make([]byte, 0, n)
	for i, s := range t {
		if i > 0 {
			out = append(out, '/')
		}
		out = append(out, s...)
	}
	return string(out)
}

func (t Topic) hasWildcard() bool {
	for _, s := range t {
		if s == SingleWild || s == MultiWild {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// NewMessage is a small constructor kept for call-site symmetry.
func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection // owning connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// -----------------------------------------------------------------------------
// Trie node
// -----------------------------------------------------------------------------

// Subscriptions hang off pattern paths (which may include wildcards);
// retained messages hang off concrete paths. Both share one trie.
type node struct {
	children map[string]*node
	subs     []*Subscription
	retained *Message
}

func (n *node) empty() bool {
	return len(n.subs) == 0 && len(n.children) == 0 && n.retained == nil
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

type Bus struct {
	mu      sync.Mutex
	root    *node
	qLen    int
	replyID atomic.Uint32
}

// NewBus creates a new bus with the given subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{
		root: &node{},
		qLen: queueLen,
	}
}

// walk returns the node for topic, creating the path when create is set.
// Caller holds b.mu.
func (b *Bus) walk(topic Topic, create bool) *node {
	n := b.root
	for _, tok := range topic {
		child := n.children[tok]
		if child == nil {
			if !create {
				return nil
			}
			if n.children == nil {
				n.children = make(map[string]*node)
			}
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	return n
}

// addSubscription inserts a subscription and replays matching retained messages.
func (b *Bus) addSubscription(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.walk(sub.topic, true)
	n.subs = append(n.subs, sub)

	for _, m := range collectRetained(b.root, sub.topic, nil) {
		deliver(sub, m)
	}
}

// Publish delivers a message to every subscriber whose pattern matches its
// topic. Topics carrying wildcards are not publishable and are dropped.
func (b *Bus) Publish(msg *Message) {
	if msg == nil || len(msg.Topic) == 0 || msg.Topic.hasWildcard() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range collectSubs(b.root, msg.Topic, nil) {
		deliver(sub, msg)
	}

	if !msg.Retained {
		return
	}
	if msg.Payload == nil {
		// Retained nil clears.
		if n := b.walk(msg.Topic, false); n != nil {
			n.retained = nil
			b.prune(msg.Topic)
		}
		return
	}
	b.walk(msg.Topic, true).retained = msg
}

// deliver enqueues without blocking, dropping the oldest queued message
// when the subscriber is full.
func deliver(sub *Subscription, msg *Message) {
	select {
	case sub.ch <- msg:
		return
	default:
	}
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- msg:
	default:
	}
}

func collectSubs(n *node, topic Topic, out []*Subscription) []*Subscription {
	if n == nil {
		return out
	}
	// "#" also matches the parent level itself.
	if h := n.children[MultiWild]; h != nil {
		out = append(out, h.subs...)
	}
	if len(topic) == 0 {
		return append(out, n.subs...)
	}
	out = collectSubs(n.children[topic[0]], topic[1:], out)
	out = collectSubs(n.children[SingleWild], topic[1:], out)
	return out
}

func collectRetained(n *node, pattern Topic, out []*Message) []*Message {
	if n == nil {
		return out
	}
	if len(pattern) == 0 {
		if n.retained != nil {
			out = append(out, n.retained)
		}
		return out
	}
	switch pattern[0] {
	case MultiWild:
		return collectAll(n, out)
	case SingleWild:
		for _, c := range n.children {
			out = collectRetained(c, pattern[1:], out)
		}
		return out
	default:
		return collectRetained(n.children[pattern[0]], pattern[1:], out)
	}
}

func collectAll(n *node, out []*Message) []*Message {
	if n.retained != nil {
		out = append(out, n.retained)
	}
	for _, c := range n.children {
		out = collectAll(c, out)
	}
	return out
}

// prune removes empty nodes along topic, deepest first. Caller holds b.mu.
func (b *Bus) prune(topic Topic) {
	stack := make([]*node, 0, len(topic)+1)
	n := b.root
	stack = append(stack, n)
	for _, tok := range topic {
		n = n.children[tok]
		if n == nil {
			return
		}
		stack = append(stack, n)
	}
	for i := len(topic) - 1; i >= 0; i-- {
		child := stack[i+1]
		if !child.empty() {
			return
		}
		delete(stack[i].children, topic[i])
	}
}

// unsubscribe removes a subscription from the trie.
func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.walk(sub.topic, false)
	if n == nil {
		return
	}
	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}
	b.prune(sub.topic)
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

type Connection struct {
	bus  *Bus
	subs []*Subscription
	mu   sync.Mutex
	id   string
}

// NewConnection creates a new connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{
		bus: b,
		id:  id,
	}
}

// ID returns the name given at creation.
func (c *Connection) ID() string { return c.id }

// NewMessage mirrors Bus.NewMessage.
func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(topic, payload, retained)
}

// Publish sends a message via the bus.
func (c *Connection) Publish(msg *Message) {
	c.bus.Publish(msg)
}

// Subscribe registers a subscription owned by this connection.
func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		conn:  c,
	}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	c.bus.addSubscription(sub)
	return sub
}

// Unsubscribe removes a subscription owned by this connection and closes
// its channel. Unsubscribing twice is a no-op.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.mu.Lock()
	found := false
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			found = true
			break
		}
	}
	c.mu.Unlock()
	if !found {
		return
	}
	c.bus.unsubscribe(sub)
	close(sub.ch)
}

// Disconnect closes all subscriptions and clears them.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub)
		close(sub.ch)
	}
}

// -----------------------------------------------------------------------------
// Request / reply
// -----------------------------------------------------------------------------

// Request publishes msg with a fresh ReplyTo topic and returns the
// subscription on which the reply will arrive. Caller unsubscribes.
func (c *Connection) Request(msg *Message) *Subscription {
	id := c.bus.replyID.Add(1)
	msg.ReplyTo = T(replyPrefix, c.id, strconv.FormatUint(uint64(id), 10))
	sub := c.Subscribe(msg.ReplyTo)
	c.Publish(msg)
	return sub
}

// RequestWait sends a request and blocks for the first reply or ctx end.
func (c *Connection) RequestWait(ctx context.Context, msg *Message) (*Message, error) {
	sub := c.Request(msg)
	defer c.Unsubscribe(sub)
	select {
	case m, ok := <-sub.Channel():
		if !ok {
			return nil, errcode.Closed
		}
		return m, nil
	case <-ctx.Done():
		return nil, errcode.Timeout
	}
}

// Reply answers req on its ReplyTo topic. Requests without one are ignored.
func (c *Connection) Reply(req *Message, payload any) {
	if req == nil || len(req.ReplyTo) == 0 {
		return
	}
	c.Publish(&Message{Topic: req.ReplyTo, Payload: payload})
}
