package safe

import (
	"github.com/chiendz11/Badminton-manager-microservices-sub002/logger"
)

// Go starts a goroutine that recovers from panics so a single bad
// handler cannot take the process down.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("goroutine panic recovered: %v", r)
			}
		}()
		f()
	}()
}
