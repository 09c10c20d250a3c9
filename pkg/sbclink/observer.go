// ABOUTME: Event hooks for receivers and transmitters
// ABOUTME: Lets metrics and UIs follow the link without touching the data path
package sbclink

import "github.com/Sendspin/sbclink-go/pkg/protocol"

// Observer is notified of link events. Receiver events arrive on the
// receive goroutine and transmitter events on the transmitter's
// goroutines, so implementations must be safe for concurrent use.
type Observer interface {
	PacketReceived(t protocol.PacketType, size int)
	PacketDropped(err error)
	FramesDecoded(res ScanResult)
	FrameError(err error)
	AckSent()
	StreamOpened(info StreamInfo)
	StreamClosed(sum StreamSummary)

	PacketSent(frames, size int)
	AckReceived()
}

// NopObserver ignores every event; embed it to implement a subset
type NopObserver struct{}

func (NopObserver) PacketReceived(protocol.PacketType, int) {}
func (NopObserver) PacketDropped(error)                     {}
func (NopObserver) FramesDecoded(ScanResult)                {}
func (NopObserver) FrameError(error)                        {}
func (NopObserver) AckSent()                                {}
func (NopObserver) StreamOpened(StreamInfo)                 {}
func (NopObserver) StreamClosed(StreamSummary)              {}
func (NopObserver) PacketSent(int, int)                     {}
func (NopObserver) AckReceived()                            {}
