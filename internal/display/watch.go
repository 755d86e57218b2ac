package display

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/ScaleShot/internal/logger"
)

// Watcher reports RandR configuration changes (monitor plugged, mode or
// rotation changed). Existing scaling configs are not updated; subscribers
// are expected to enumerate again.
type Watcher struct {
	conn        *xgb.Conn
	root        xproto.Window
	mu          sync.Mutex
	subscribers map[chan struct{}]struct{}
	running     bool
	done        chan struct{}
	closeOnce   sync.Once
}

// NewWatcher opens a dedicated X connection for RandR events.
func NewWatcher() (*Watcher, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("RandR extension not available: %w", err)
	}

	return &Watcher{
		conn:        conn,
		root:        xproto.Setup(conn).DefaultScreen(conn).Root,
		subscribers: make(map[chan struct{}]struct{}),
		done:        make(chan struct{}),
	}, nil
}

// Start selects RandR notifications and begins the event loop.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	err := randr.SelectInputChecked(w.conn, w.root,
		randr.NotifyMaskScreenChange|
			randr.NotifyMaskCrtcChange|
			randr.NotifyMaskOutputChange).Check()
	if err != nil {
		return fmt.Errorf("failed to select RandR input: %w", err)
	}

	w.running = true
	go w.loop()
	return nil
}

// Stop closes the connection, which ends the event loop and closes every
// subscriber channel.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	w.closeOnce.Do(w.conn.Close)
	if running {
		<-w.done
	}
}

// Subscribe returns a channel that receives a value after each change.
// Bursts of events are coalesced.
func (w *Watcher) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	w.mu.Lock()
	w.subscribers[ch] = struct{}{}
	w.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch.
func (w *Watcher) Unsubscribe(ch chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.subscribers[ch]; ok {
		delete(w.subscribers, ch)
		close(ch)
	}
}

func (w *Watcher) loop() {
	log := logger.WithComponent("display-watcher")
	defer close(w.done)
	defer w.closeSubscribers()

	for {
		ev, err := w.conn.WaitForEvent()
		if ev == nil && err == nil {
			log.Debug().Msg("X connection closed, stopping watcher")
			return
		}
		if err != nil {
			log.Warn().Err(err).Msg("X error while watching displays")
			continue
		}

		switch ev.(type) {
		case randr.ScreenChangeNotifyEvent, randr.NotifyEvent:
			log.Info().Msg("Display configuration changed")
			w.notify()
		}
	}
}

func (w *Watcher) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (w *Watcher) closeSubscribers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.subscribers {
		delete(w.subscribers, ch)
		close(ch)
	}
}
