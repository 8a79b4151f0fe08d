package mqttv3

// MetricLabels represents key-value pairs for metric labels.
type MetricLabels map[string]string

// Metrics defines the interface for collecting metrics.
// Label sets passed for the same name must always use the same keys.
type Metrics interface {
	// Counter returns a counter metric.
	Counter(name string, labels MetricLabels) Counter

	// Gauge returns a gauge metric.
	Gauge(name string, labels MetricLabels) Gauge

	// Histogram returns a histogram metric.
	Histogram(name string, labels MetricLabels) Histogram
}

// Counter is a monotonically increasing counter.
type Counter interface {
	// Inc increments the counter by 1.
	Inc()

	// Add adds the given value to the counter.
	Add(delta float64)
}

// Gauge is a metric that can go up and down.
type Gauge interface {
	// Set sets the gauge to the given value.
	Set(value float64)

	// Inc increments the gauge by 1.
	Inc()

	// Dec decrements the gauge by 1.
	Dec()
}

// Histogram tracks the distribution of values.
type Histogram interface {
	// Observe records a value.
	Observe(value float64)
}

// NoOpMetrics is a no-op implementation of Metrics.
type NoOpMetrics struct{}

func (NoOpMetrics) Counter(_ string, _ MetricLabels) Counter     { return noOpMetric{} }
func (NoOpMetrics) Gauge(_ string, _ MetricLabels) Gauge         { return noOpMetric{} }
func (NoOpMetrics) Histogram(_ string, _ MetricLabels) Histogram { return noOpMetric{} }

type noOpMetric struct{}

func (noOpMetric) Inc()            {}
func (noOpMetric) Dec()            {}
func (noOpMetric) Add(_ float64)   {}
func (noOpMetric) Set(_ float64)   {}
func (noOpMetric) Observe(float64) {}

// Standard metric names for MQTT clients.
const (
	// MetricConnectionOpen is 1 while the client holds an open connection.
	MetricConnectionOpen = "mqtt_client_connection_open"

	// MetricConnectsTotal is the total number of successful opens.
	MetricConnectsTotal = "mqtt_client_connects_total"

	// MetricPacketsSent is the total number of packets sent.
	MetricPacketsSent = "mqtt_client_packets_sent_total"

	// MetricPacketsReceived is the total number of packets received.
	MetricPacketsReceived = "mqtt_client_packets_received_total"

	// MetricBytesSent is the total bytes sent.
	MetricBytesSent = "mqtt_client_bytes_sent_total"

	// MetricBytesReceived is the total bytes received.
	MetricBytesReceived = "mqtt_client_bytes_received_total"

	// MetricErrors is the total number of failed operations.
	MetricErrors = "mqtt_client_errors_total"

	// MetricReceiveSize is the distribution of received remaining lengths.
	MetricReceiveSize = "mqtt_client_receive_size_bytes"
)

// Standard metric labels.
const (
	// LabelPacketType is the packet type label.
	LabelPacketType = "packet_type"

	// LabelOp is the operation label.
	LabelOp = "op"

	// LabelKind is the error kind label.
	LabelKind = "kind"
)

// ClientMetrics provides convenience methods for the client's metrics.
type ClientMetrics struct {
	metrics Metrics
}

// NewClientMetrics creates a new ClientMetrics instance.
func NewClientMetrics(m Metrics) *ClientMetrics {
	if m == nil {
		m = NoOpMetrics{}
	}
	return &ClientMetrics{metrics: m}
}

// ConnectionOpened records a new connection.
func (c *ClientMetrics) ConnectionOpened() {
	c.metrics.Gauge(MetricConnectionOpen, nil).Set(1)
	c.metrics.Counter(MetricConnectsTotal, nil).Inc()
}

// ConnectionClosed records a closed connection.
func (c *ClientMetrics) ConnectionClosed() {
	c.metrics.Gauge(MetricConnectionOpen, nil).Set(0)
}

// PacketSent records a sent packet and its encoded size.
func (c *ClientMetrics) PacketSent(packetType PacketType, n int) {
	labels := MetricLabels{LabelPacketType: packetType.String()}
	c.metrics.Counter(MetricPacketsSent, labels).Inc()
	c.metrics.Counter(MetricBytesSent, nil).Add(float64(n))
}

// PacketReceived records a received packet and the bytes read for it.
func (c *ClientMetrics) PacketReceived(packetType PacketType, n int, remainingLength uint32) {
	labels := MetricLabels{LabelPacketType: packetType.String()}
	c.metrics.Counter(MetricPacketsReceived, labels).Inc()
	c.metrics.Counter(MetricBytesReceived, nil).Add(float64(n))
	c.metrics.Histogram(MetricReceiveSize, nil).Observe(float64(remainingLength))
}

// OperationFailed records a failed operation.
func (c *ClientMetrics) OperationFailed(op string, kind error) {
	labels := MetricLabels{LabelOp: op, LabelKind: kindLabel(kind)}
	c.metrics.Counter(MetricErrors, labels).Inc()
}

// kindLabel maps an error kind to a short label value.
func kindLabel(kind error) string {
	switch kind {
	case ErrConnect:
		return "connect"
	case ErrEncode:
		return "encode"
	case ErrTransport:
		return "transport"
	case ErrHeader:
		return "header"
	case ErrFactory:
		return "factory"
	case ErrBodyTransport:
		return "body_transport"
	case ErrBodyProtocol:
		return "body_protocol"
	case ErrIncompleteBody:
		return "incomplete_body"
	default:
		return "other"
	}
}
