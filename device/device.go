/*
DESCRIPTION
  device.go provides Source, an interface describing an input device
  from which decoded video frames can be obtained.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides the interface and implementations for frame
// and audio input devices feeding the conversion pipeline.
package device

import "github.com/ausocean/sanjuuni/frame"

// Source describes a decoded video input. Implementations yield
// frames in display order until io.EOF.
type Source interface {
	// NextFrame returns the next decoded frame, or io.EOF once the
	// input is exhausted.
	NextFrame() (*frame.Image, error)

	// Len returns the total number of frames when known in advance,
	// and zero otherwise.
	Len() int

	// FrameRate returns the native frame rate of the input in frames
	// per second, and zero for still images.
	FrameRate() float64
}
