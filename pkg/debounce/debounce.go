package debounce

import (
	"sync"
	"time"
)

// Debounce returns a function that delays calling fn until duration has
// passed since the last call. Calls made during the wait restart it.
func Debounce(duration time.Duration, fn func()) func() {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)

	return func() {
		mu.Lock()
		defer mu.Unlock()

		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(duration, fn)
	}
}
