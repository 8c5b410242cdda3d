// Package hotkey provides a global push-to-talk hotkey using gohook.
// Each press of the key combo requests one fixed-length answer recording.
package hotkey

import (
	"context"
	"sync"

	hook "github.com/robotn/gohook"
	"github.com/rs/zerolog"
)

// Listener watches a global key combo and emits one value per press.
type Listener struct {
	keys []string
	ch   chan struct{}
	done chan struct{}
	once sync.Once
	log  zerolog.Logger
}

// NewListener creates a Listener for the given key combo.
// keys should be lowercase key names (e.g., ["ctrl", "shift", "r"]).
func NewListener(keys []string, log zerolog.Logger) *Listener {
	return &Listener{
		keys: keys,
		ch:   make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  log.With().Str("component", "hotkey").Logger(),
	}
}

// Presses returns the channel that receives hotkey presses. Presses that
// arrive while one is already pending are merged. The channel is closed
// when the listener stops.
func (l *Listener) Presses() <-chan struct{} {
	return l.ch
}

// Run listens until ctx is cancelled or Stop is called.
func (l *Listener) Run(ctx context.Context) error {
	hook.Register(hook.KeyDown, l.keys, func(hook.Event) {
		l.press()
	})

	evChan := hook.Start()
	go func() {
		select {
		case <-ctx.Done():
		case <-l.done:
		}
		hook.End()
	}()

	l.log.Info().Strs("keys", l.keys).Msg("push-to-talk hotkey active")
	<-hook.Process(evChan)
	close(l.ch)
	return nil
}

func (l *Listener) press() {
	select {
	case l.ch <- struct{}{}:
	default: // one press already pending
	}
}

// Stop terminates the listener. It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}

// Trigger calls fn once per press until presses is closed or ctx is
// cancelled. Presses received while fn runs are discarded.
func Trigger(ctx context.Context, presses <-chan struct{}, fn func(context.Context)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-presses:
			if !ok {
				return nil
			}
			fn(ctx)
			drain(presses)
		}
	}
}

func drain(presses <-chan struct{}) {
	for {
		select {
		case _, ok := <-presses:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
