// ABOUTME: Audio link package joining the codec, framing and transport layers
// ABOUTME: Provides the receiver and transmitter for SBC streams over byte links
// Package sbclink streams SBC audio over a reliable byte stream such as a
// Bluetooth RFCOMM socket.
//
// The transmit side encodes PCM into SBC frames, batches several frames into
// one flag-delimited, byte-stuffed Data packet and paces the packets at the
// audio rate. A control packet is sent before the first and after the last
// batch.
//
// The receive side reassembles packets, locates the codec frames inside each
// payload (repairing frames whose sync byte arrives late), decodes them into
// one sink per stream and acknowledges every Data packet.
//
// Receiving into numbered WAV files:
//
//	sinks, err := sbclink.WAVSinks("recordings")
//	rx := sbclink.NewReceiver(conn, sbclink.ReceiverConfig{Sinks: sinks})
//	err = rx.Run(ctx)
//
// Transmitting a test tone:
//
//	tx, err := sbclink.NewTransmitter(conn, sbclink.TransmitterConfig{
//		Source: sbclink.NewTestTone(32000, 1, 10),
//	})
//	err = tx.Run(ctx)
package sbclink
