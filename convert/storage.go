/*
NAME
  storage.go

DESCRIPTION
  Shared frame and audio storage for the server output modes, with
  the one-slot streamed hand-off between the encoder and the serving
  loop.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package convert

import "sync"

// storage is the process-wide frame and audio store shared by the
// encoder and the HTTP/WebSocket servers. In streamed mode the two
// sides alternate through the hand-off condition.
type storage struct {
	mu   sync.Mutex
	hand *sync.Cond

	frames []string
	audio  []byte
	// audioLen tracks produced-minus-served bytes; it runs negative
	// when a streamed client is served zero padding ahead of the
	// encoder, and the deficit is dropped from later appends.
	audioLen int

	totalFrames int
	fps         float64
	streamed    bool
	done        bool
}

func newStorage(streamed bool) *storage {
	s := &storage{streamed: streamed}
	s.hand = sync.NewCond(&s.mu)
	return s
}

// handoff performs one streamed rendezvous: wake the other side and
// sleep until woken. It is a no-op when streaming is off or finished.
func (s *storage) handoff() {
	if !s.streamed {
		return
	}
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.hand.Broadcast()
	s.hand.Wait()
	s.mu.Unlock()
}

// finish releases any party blocked in handoff permanently.
func (s *storage) finish() {
	s.mu.Lock()
	s.done = true
	s.hand.Broadcast()
	s.mu.Unlock()
}

func (s *storage) addFrame(f string) {
	s.mu.Lock()
	s.frames = append(s.frames, f)
	s.mu.Unlock()
}

func (s *storage) frame(i int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.frames) {
		return "", false
	}
	f := s.frames[i]
	if s.streamed {
		// Frames are handed off once; free the slot.
		s.frames[i] = ""
	}
	return f, true
}

func (s *storage) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *storage) appendAudio(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audioLen < 0 {
		// Drop the prefix a streamed client was already served as
		// silence.
		drop := -s.audioLen
		if drop > len(p) {
			drop = len(p)
		}
		p = p[drop:]
	}
	s.audioLen += len(p)
	s.audio = append(s.audio, p...)
}

// audioAt returns size bytes at the given offset for indexed access,
// clipped to the produced audio.
func (s *storage) audioAt(offset, size int) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset < 0 || offset >= len(s.audio) {
		return nil, false
	}
	end := offset + size
	if end > len(s.audio) {
		end = len(s.audio)
	}
	return s.audio[offset:end], true
}

// audioNext serves the next size bytes in streamed mode, zero padding
// when the encoder is behind. It reports false once the deficit
// reaches one chunk, meaning the stream has drained.
func (s *storage) audioNext(size int) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audioLen <= -size {
		return nil, false
	}
	out := make([]byte, size)
	n := copy(out, s.audio)
	s.audio = s.audio[n:]
	s.audioLen -= size
	return out, true
}

func (s *storage) audioSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audio)
}
