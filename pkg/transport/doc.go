// ABOUTME: Byte stream transports for the audio link
// ABOUTME: Opens RFCOMM, TCP and WebSocket links from address URLs
// Package transport opens the reliable, ordered byte streams the audio link
// runs over. Addresses are URLs:
//
//	rfcomm://AA:BB:CC:DD:EE:FF/2   Bluetooth RFCOMM (Linux only)
//	tcp://host:port                 TCP
//	ws://host:port/path             WebSocket, binary messages
//
// Message boundaries never carry meaning: a WebSocket transport presents the
// concatenation of all binary messages as one stream.
package transport
