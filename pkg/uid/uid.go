package uid

import (
	"strings"

	"github.com/lithammer/shortuuid/v4"
)

// New returns a short prefixed UID, e.g. "A9XK2MP" — no DB look-ups needed.
func New(prefix string) string {
	return prefix + strings.ToUpper(shortuuid.New()[:6])
}
