package boundary

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// ErrFailed is returned by Guard once the boundary has caught a panic.
var ErrFailed = errors.New("boundary has failed")

// Boundary contains panics raised by the handlers mounted beneath it. The
// first panic latches it into the failed state; from then on every request
// through the mount is redirected to the failure page and the handlers are
// never run again.
type Boundary struct {
	failurePath string
	onCatch     func(recovered any)
	failed      atomic.Bool
}

// New returns a boundary that redirects to failurePath after a failure.
// onCatch receives the first recovered value and may be nil.
func New(failurePath string, onCatch func(recovered any)) *Boundary {
	return &Boundary{failurePath: failurePath, onCatch: onCatch}
}

// Failed reports whether a panic has been caught.
func (b *Boundary) Failed() bool { return b.failed.Load() }

// FailurePath is where failed requests are sent.
func (b *Boundary) FailurePath() string { return b.failurePath }

func (b *Boundary) catch(recovered any) {
	if b.failed.CompareAndSwap(false, true) && b.onCatch != nil {
		b.onCatch(recovered)
	}
}

// Guard runs fn unless the boundary has already failed. A panic in fn is
// caught and reported as ErrFailed.
func (b *Boundary) Guard(fn func()) (err error) {
	if b.Failed() {
		return ErrFailed
	}
	defer func() {
		if r := recover(); r != nil {
			b.catch(r)
			err = ErrFailed
		}
	}()
	fn()
	return nil
}

// Middleware mounts the boundary on a gin route group.
func (b *Boundary) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if b.Failed() {
			b.redirect(c)
			return
		}
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			// the server uses this value to drop the connection silently
			if r == http.ErrAbortHandler {
				panic(r)
			}
			b.catch(r)
			b.redirect(c)
		}()
		c.Next()
	}
}

func (b *Boundary) redirect(c *gin.Context) {
	if c.Writer.Written() {
		c.Abort()
		return
	}
	c.Redirect(http.StatusFound, b.failurePath)
	c.Abort()
}
