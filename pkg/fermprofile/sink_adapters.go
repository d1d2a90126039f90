package fermprofile

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("fermprofile: channel sink closed")

// ProfileBatchSink receives every batch of finished profiles.
type ProfileBatchSink func([]*Profile) error

// NewCallbackSink adapts a ProfileBatchSink into a full ProfileSink so callers
// can plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn ProfileBatchSink) ProfileSink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes batches via a channel; it returns the sink, the read-only channel,
// and a close function that the caller should invoke during shutdown.
func NewChannelSink(name string, buffer int) (ProfileSink, <-chan []*Profile, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []*Profile, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   ProfileBatchSink
}

func (s *callbackSink) WriteProfiles(_ context.Context, profiles []*Profile) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if len(profiles) == 0 {
		return nil
	}
	return s.fn(profiles)
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan []*Profile
	closed chan struct{}
	mu     sync.RWMutex
	once   sync.Once
}

func (s *channelSink) WriteProfiles(ctx context.Context, profiles []*Profile) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}
	if len(profiles) == 0 {
		return nil
	}

	batch := append([]*Profile(nil), profiles...)
	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.ch <- batch:
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

// close unblocks pending writers before closing the data channel.
func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		s.mu.Lock()
		close(s.ch)
		s.mu.Unlock()
	})
}
