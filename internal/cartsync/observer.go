package cartsync

import "log"

// Observer is told about replication failures. Failures never reach the
// Store; the observer is the only place they surface.
type Observer interface {
	PushFailed(cartID string, err error)
	PullFailed(cartID string, err error)
}

// LogObserver writes failures to a logger.
type LogObserver struct {
	Logger *log.Logger
}

func (o LogObserver) PushFailed(cartID string, err error) {
	o.Logger.Printf("cart sync push %s failed: %v", cartID, err)
}

func (o LogObserver) PullFailed(cartID string, err error) {
	o.Logger.Printf("cart sync pull %s failed: %v", cartID, err)
}
