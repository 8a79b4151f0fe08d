package router

import (
	"maps"
	"regexp"
	"slices"
	"sync"

	"github.com/vitalvas/mqttv3"
)

// Handler processes a received PUBLISH packet.
type Handler func(pkt *mqttv3.PublishPacket)

// Condition defines filtering criteria for message routing.
type Condition struct {
	topicFilter     *string
	qos             *byte
	retain          *bool
	topicRegexp     *regexp.Regexp
	payloadRegexp   *regexp.Regexp
	subscriptionQoS byte
}

// ConditionOption configures a Condition.
type ConditionOption func(*Condition)

// WithTopic sets the topic filter for message matching.
// Supports MQTT wildcards: + (single level) and # (multi level).
func WithTopic(filter string) ConditionOption {
	return func(c *Condition) {
		c.topicFilter = &filter
	}
}

// WithSubscriptionQoS sets the maximum QoS requested for the topic filter
// when the router builds a SUBSCRIBE packet. It does not filter messages.
func WithSubscriptionQoS(qos byte) ConditionOption {
	return func(c *Condition) {
		c.subscriptionQoS = qos
	}
}

// WithQoS filters messages by QoS level.
func WithQoS(qos byte) ConditionOption {
	return func(c *Condition) {
		c.qos = &qos
	}
}

// WithRetain filters messages by the retain flag.
func WithRetain(retain bool) ConditionOption {
	return func(c *Condition) {
		c.retain = &retain
	}
}

// WithTopicRegexp filters messages by topic regexp pattern.
func WithTopicRegexp(pattern *regexp.Regexp) ConditionOption {
	return func(c *Condition) {
		c.topicRegexp = pattern
	}
}

// WithPayload filters messages by payload regexp pattern.
func WithPayload(pattern *regexp.Regexp) ConditionOption {
	return func(c *Condition) {
		c.payloadRegexp = pattern
	}
}

// registration holds a handler with its conditions.
type registration struct {
	handler   Handler
	condition Condition
}

// Router dispatches received messages to handlers based on conditions.
// Supports MQTT wildcards: + (single level) and # (multi level).
type Router struct {
	mu       sync.RWMutex
	handlers []registration
}

// New creates a new Router.
func New() *Router {
	return &Router{
		handlers: make([]registration, 0),
	}
}

// Handle registers a handler with optional conditions.
//
// Examples:
//
//	r.Handle(handler, WithTopic("sensors/#"))
//	r.Handle(handler, WithTopic("sensors/#"), WithQoS(1))
//	r.Handle(handler, WithTopic("sensors/#"), WithPayload(regexp.MustCompile(`^\{`)))
func (r *Router) Handle(handler Handler, opts ...ConditionOption) {
	var cond Condition
	for _, opt := range opts {
		opt(&cond)
	}

	r.mu.Lock()
	r.handlers = append(r.handlers, registration{
		handler:   handler,
		condition: cond,
	})
	r.mu.Unlock()
}

// matches checks if a condition matches the packet.
func (c *Condition) matches(pkt *mqttv3.PublishPacket) bool {
	if c.topicFilter != nil && !mqttv3.TopicMatch(*c.topicFilter, pkt.Topic) {
		return false
	}
	if c.qos != nil && *c.qos != pkt.QoS {
		return false
	}
	if c.retain != nil && *c.retain != pkt.Retain {
		return false
	}
	if c.topicRegexp != nil && !c.topicRegexp.MatchString(pkt.Topic) {
		return false
	}
	if c.payloadRegexp != nil && !c.payloadRegexp.Match(pkt.Payload) {
		return false
	}
	return true
}

// Route dispatches a message to all matching handlers and returns how many ran.
func (r *Router) Route(pkt *mqttv3.PublishPacket) int {
	if pkt == nil {
		return 0
	}

	r.mu.RLock()
	var matched []Handler
	for _, reg := range r.handlers {
		if reg.condition.matches(pkt) {
			matched = append(matched, reg.handler)
		}
	}
	r.mu.RUnlock()

	for _, handler := range matched {
		handler(pkt)
	}
	return len(matched)
}

// Dispatch routes pkt when it is a PUBLISH and ignores every other packet.
// It reports whether pkt was a PUBLISH.
func (r *Router) Dispatch(pkt mqttv3.Packet) bool {
	publish, ok := pkt.(*mqttv3.PublishPacket)
	if !ok {
		return false
	}
	r.Route(publish)
	return true
}

// Filters returns all unique registered topic filters in sorted order.
func (r *Router) Filters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, reg := range r.handlers {
		if reg.condition.topicFilter != nil {
			seen[*reg.condition.topicFilter] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}

// Subscribe builds a SUBSCRIBE packet covering every registered topic filter.
// A filter registered more than once is requested at its highest QoS.
func (r *Router) Subscribe(packetID uint16) *mqttv3.SubscribePacket {
	r.mu.RLock()
	qos := make(map[string]byte)
	for _, reg := range r.handlers {
		if f := reg.condition.topicFilter; f != nil {
			qos[*f] = max(qos[*f], reg.condition.subscriptionQoS)
		}
	}
	r.mu.RUnlock()

	pkt := &mqttv3.SubscribePacket{PacketID: packetID}
	for _, filter := range slices.Sorted(maps.Keys(qos)) {
		pkt.Subscriptions = append(pkt.Subscriptions, mqttv3.Subscription{
			TopicFilter: filter,
			QoS:         qos[filter],
		})
	}
	return pkt
}

// Len returns the number of registered handlers.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Clear removes all handlers.
func (r *Router) Clear() {
	r.mu.Lock()
	r.handlers = r.handlers[:0]
	r.mu.Unlock()
}
