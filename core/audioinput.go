package orchestration

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/koscakluka/polyglot-core/core/audio"
)

// AudioInputBase is the minimal contract for an audio source feeding the
// session, e.g. the miniaudio capture client.
type AudioInputBase interface {
	Stream(ctx context.Context, onAudio func(audio []byte)) error
	Close()
	EncodingInfo() audio.EncodingInfo
}

// AudioInputFine is implemented by sources with explicit capture controls.
type AudioInputFine interface {
	AudioInputBase
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

type audioInput struct {
	// base stores the configured input client used for streaming audio.
	base AudioInputBase
	// fineCaptureControl is set when the input client supports explicit capture controls.
	fineCaptureControl AudioInputFine

	connected   atomic.Bool
	isCapturing atomic.Bool

	// onInputAudio is called when input audio is received
	onInputAudio func(audio []byte)
}

func newAudioInput(client AudioInputBase, onInputAudio func(audio []byte)) *audioInput {
	if onInputAudio == nil {
		onInputAudio = func(audio []byte) {}
	}

	input := audioInput{onInputAudio: onInputAudio}
	input.set(client)
	return &input
}

func (a *audioInput) set(client AudioInputBase) {
	if a == nil {
		return
	}

	a.base = client
	a.fineCaptureControl = nil
	a.connected.Store(client != nil)
	a.isCapturing.Store(false)

	if fine, ok := client.(AudioInputFine); ok {
		a.fineCaptureControl = fine
	}
}

func (a *audioInput) IsConfigured() bool { return a != nil && a.connected.Load() }
func (a *audioInput) IsCapturing() bool  { return a != nil && a.isCapturing.Load() }

func (a *audioInput) Start(ctx context.Context) {
	if a.IsConfigured() {
		a.capture(ctx)
	}
}

func (a *audioInput) capture(ctx context.Context) {
	if !a.isCapturing.CompareAndSwap(false, true) {
		return
	}

	start := a.base.Stream
	if a.fineCaptureControl != nil {
		start = a.fineCaptureControl.StartCapture
	}

	go func() {
		if err := start(ctx, a.onInputAudio); err != nil {
			a.isCapturing.Store(false)
			// TODO: Find a way to propagate this error
			log.Printf("Failed to start audio input: %v", err)
		}
	}()
}

func (a *audioInput) Close() error {
	if a.base != nil && a.IsConfigured() {
		if a.fineCaptureControl != nil {
			if err := a.fineCaptureControl.StopCapture(); err != nil {
				return err
			}
		}

		a.base.Close()
	}
	a.isCapturing.Store(false)

	return nil
}

func (a *audioInput) EncodingInfo() audio.EncodingInfo {
	if a == nil || a.base == nil {
		return audio.GetDefaultEncodingInfo()
	}

	return a.base.EncodingInfo()
}
