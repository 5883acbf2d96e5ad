package llm

import (
	"context"
)

// Chunk is one incremental piece of generated text. Done marks the final
// record of the stream; its Text is usually empty.
type Chunk struct {
	Text string
	Done bool
}

// StreamHandler consumes chunks in arrival order. Returning an error stops
// the stream early and propagates out of GenerateStream.
type StreamHandler func(chunk Chunk) error

// Option allows for optional parameters like Temperature, Model override, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// StreamingProvider defines the contract for an LLM backend that can
// deliver a reply as incremental fragments.
//
// GenerateStream returns nil when the model signalled completion,
// ctx.Err() when the context was cancelled mid-stream, and any other
// error for transport or service failures.
type StreamingProvider interface {
	GenerateStream(ctx context.Context, prompt string, fn StreamHandler, options ...Option) error
}
