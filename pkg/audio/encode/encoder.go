// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all audio encoders
package encode

// Encoder encodes PCM int32 samples to various formats
type Encoder interface {
	// Encode converts PCM samples to encoded audio data
	Encode(samples []int32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}

// FrameEncoder is an Encoder that produces discrete codec frames and may
// hold back samples until a whole frame is available
type FrameEncoder interface {
	Encoder

	// EncodeFrames returns every complete frame the samples allow
	EncodeFrames(samples []int32) ([][]byte, error)

	// Flush pads held samples with silence and returns the final frame, if any
	Flush() ([]byte, error)
}
