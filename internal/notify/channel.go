package notify

import (
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindDanger  Kind = "danger"
)

const DefaultHideAfter = 3000 * time.Millisecond

type Notification struct {
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
	Visible bool   `json:"visible"`
}

// Channel holds the single status message shown to the editor. Each Notify
// cancels the pending hide timer and starts a new one, so exactly one
// message is on screen and it stays for the full hide delay.
type Channel struct {
	mu        sync.Mutex
	clock     Clock
	hideAfter time.Duration
	current   Notification
	timer     Timer
	gen       uint64
	subs      []func(Notification)
}

func NewChannel(clock Clock, hideAfter time.Duration) *Channel {
	if clock == nil {
		clock = RealClock()
	}
	if hideAfter <= 0 {
		hideAfter = DefaultHideAfter
	}
	return &Channel{clock: clock, hideAfter: hideAfter}
}

// Subscribe registers f to be called after every show and hide. f runs
// outside the channel lock.
func (c *Channel) Subscribe(f func(Notification)) {
	if f == nil {
		return
	}
	c.mu.Lock()
	c.subs = append(c.subs, f)
	c.mu.Unlock()
}

func (c *Channel) Notify(message string, kind Kind) {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.current = Notification{Message: message, Kind: kind, Visible: true}
	c.timer = c.clock.AfterFunc(c.hideAfter, func() { c.hide(gen) })
	n := c.current
	subs := c.subscribers()
	c.mu.Unlock()

	publish(subs, n)
}

func (c *Channel) Current() Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// hide is a no-op when a newer notification replaced the one that armed it.
func (c *Channel) hide(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.current.Visible {
		c.mu.Unlock()
		return
	}
	c.current.Visible = false
	c.timer = nil
	n := c.current
	subs := c.subscribers()
	c.mu.Unlock()

	publish(subs, n)
}

func (c *Channel) subscribers() []func(Notification) {
	out := make([]func(Notification), len(c.subs))
	copy(out, c.subs)
	return out
}

func publish(subs []func(Notification), n Notification) {
	for _, f := range subs {
		f(n)
	}
}
