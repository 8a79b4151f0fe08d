// Package mqttv3 provides the client side of the MQTT 3.1.1 wire protocol:
// a packet codec and a connection driver.
//
// This package implements the MQTT Version 3.1.1 OASIS Standard:
// https://docs.oasis-open.org/mqtt/mqtt/v3.1.1/mqtt-v3.1.1.html
//
// # Packet Types
//
// The package provides structs for the 14 MQTT 3.1.1 control packets:
//
//   - ConnectPacket, ConnackPacket: Connection establishment
//   - PublishPacket, PubackPacket, PubrecPacket, PubrelPacket, PubcompPacket: Message delivery
//   - SubscribePacket, SubackPacket: Topic subscription
//   - UnsubscribePacket, UnsubackPacket: Topic unsubscription
//   - PingreqPacket, PingrespPacket: Keep-alive
//   - DisconnectPacket: Connection termination
//
// Received packets are built incrementally: a HeaderDecoder consumes the fixed
// header one byte at a time, NewPacket creates the empty packet the header
// names, and Accumulate feeds it payload bytes in whatever chunks the
// transport delivers.
//
// Use ReadPacket and WritePacket to read/write packets from/to connections:
//
//	// Read a packet
//	pkt, n, err := mqttv3.ReadPacket(conn, maxPacketSize)
//
//	// Write a packet
//	n, err := mqttv3.WritePacket(conn, packet, maxPacketSize)
//
// # Client
//
// Client owns one connection and performs one blocking operation at a time.
// It opens lazily and closes the connection on any failure that leaves the
// stream position unknown:
//
//	client, err := mqttv3.NewClient("tcp://localhost:1883",
//	    mqttv3.WithReadTimeout(30*time.Second),
//	)
//	defer client.Close()
//
//	connack, err := client.Connect(ctx, &mqttv3.ConnectPacket{
//	    ClientID:     "my-client",
//	    CleanSession: true,
//	    KeepAlive:    60,
//	})
//
//	err = client.Send(&mqttv3.PublishPacket{Topic: "sensors/temp", Payload: []byte("21.5")})
//	pkt, err := client.Receive()
//
// Errors are *OpError values. Classify them with errors.Is against the kinds
// ErrConnect, ErrEncode, ErrTransport, ErrHeader, ErrFactory, ErrBodyTransport,
// ErrBodyProtocol and ErrIncompleteBody.
//
// TLS connections:
//
//	client, err := mqttv3.NewClient("tls://localhost:8883",
//	    mqttv3.WithTLS(&tls.Config{}),
//	)
//
// WebSocket connections:
//
//	client, err := mqttv3.NewClient("ws://localhost:8080/mqtt")
package mqttv3
