package clock

import (
	"sync"
	"time"

	"github.com/billingsim/billingsim/internal/config"
	ierr "github.com/billingsim/billingsim/internal/errors"
)

// Clock is the single source of "now" for every lifecycle computation.
// No component reads wall-clock time during simulation.
type Clock interface {
	Now() time.Time
	NowMillis() int64
}

// VirtualClock is an advance-only simulated clock. It starts at the
// configured epoch and moves forward only by explicit command.
type VirtualClock struct {
	mu          sync.RWMutex
	nowMillis   int64
	epochMillis int64
}

// NewVirtualClock creates a virtual clock at the configured epoch.
// A zero epoch anchors the clock to wall-clock time at startup; that is
// the only wall-clock read the process ever performs.
func NewVirtualClock(cfg *config.Configuration) *VirtualClock {
	epoch := cfg.Emulator.EpochMillis
	if epoch == 0 {
		epoch = time.Now().UnixMilli()
	}
	return &VirtualClock{
		nowMillis:   epoch,
		epochMillis: epoch,
	}
}

// Now returns the current simulated time
func (c *VirtualClock) Now() time.Time {
	return time.UnixMilli(c.NowMillis()).UTC()
}

// NowMillis returns the current simulated time in unix milliseconds
func (c *VirtualClock) NowMillis() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nowMillis
}

// Advance moves the clock forward by exactly d and returns the new time.
// Zero or negative advances fail with InvalidArgument; the clock never
// moves backward.
func (c *VirtualClock) Advance(d time.Duration) (time.Time, error) {
	if d <= 0 {
		return time.Time{}, ierr.NewError("non-positive time advance").
			WithHint("Time can only be advanced by a positive duration").
			WithReportableDetails(map[string]any{
				"duration": d.String(),
			}).
			Mark(ierr.ErrInvalidArgument)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowMillis += d.Milliseconds()
	return time.UnixMilli(c.nowMillis).UTC(), nil
}

// SetTime jumps the clock to an absolute time, which must not be in the
// simulated past
func (c *VirtualClock) SetTime(millis int64) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if millis < c.nowMillis {
		return time.Time{}, ierr.NewError("time cannot move backwards").
			WithHint("The requested time is before the current simulated time").
			WithReportableDetails(map[string]any{
				"requested_millis": millis,
				"current_millis":   c.nowMillis,
			}).
			Mark(ierr.ErrInvalidArgument)
	}

	c.nowMillis = millis
	return time.UnixMilli(c.nowMillis).UTC(), nil
}

// Reset returns the clock to its initial epoch. Used only by the
// emulator-wide state reset.
func (c *VirtualClock) Reset() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowMillis = c.epochMillis
	return time.UnixMilli(c.nowMillis).UTC()
}

// EpochMillis returns the clock's initial epoch
func (c *VirtualClock) EpochMillis() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epochMillis
}
