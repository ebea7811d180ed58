package credits

import (
	"fmt"
	"time"

	"github.com/SvenKoller/RenderKeep/internal/pkg/cache"
)

// DefaultClickWindow is the de-duplication window for share clicks. Two
// hits on the same tracking code within one window bucket count as the
// same click. The exact click-identity policy is a product decision; the
// code + time-bucket default is the conservative choice.
const DefaultClickWindow = 10 * time.Second

// ClickDeduper decides whether a click on a tracking code is new or a
// replay of the immediately preceding click.
type ClickDeduper interface {
	IsNewClick(code string, at time.Time) bool
}

// RedisClickDeduper de-duplicates clicks with a SETNX key per tracking
// code and time bucket. The check happens before the award transaction
// opens, so no row lock is ever held across the cache call.
type RedisClickDeduper struct {
	window time.Duration
}

// NewRedisClickDeduper creates a deduper over the shared cache client.
func NewRedisClickDeduper(window time.Duration) *RedisClickDeduper {
	if window <= 0 {
		window = DefaultClickWindow
	}
	return &RedisClickDeduper{window: window}
}

// IsNewClick reports whether this is the first hit in the current time
// bucket. Cache failures count the click as new: losing de-duplication
// briefly is preferable to silently dropping legitimate awards, and the
// daily cap still bounds the damage.
func (d *RedisClickDeduper) IsNewClick(code string, at time.Time) bool {
	bucket := at.UTC().Unix() / int64(d.window/time.Second)
	key := fmt.Sprintf("share:click:%s:%d", code, bucket)
	ok, err := cache.SetNX(key, 1, 2*d.window)
	if err != nil {
		return true
	}
	return ok
}
