package slugify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hotel Admin":        "hotel-admin",
		"Room Service!!":     "room-service",
		"  Front  Desk  ":    "front-desk",
		"Restaurant_Order":   "restaurant-order",
		"Déjà Vu":            "déjà-vu",
		"ALLCAPS":            "allcaps",
		"already-slugged-ok": "already-slugged-ok",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestUniqueNoCollision(t *testing.T) {
	slug := Unique("Hotel Admin", func(string) bool { return false })
	assert.Equal(t, "hotel-admin", slug)
}

func TestUniqueAppendsSuffixUntilFree(t *testing.T) {
	taken := map[string]bool{"hotel-admin": true, "hotel-admin-1": true}
	slug := Unique("Hotel Admin", func(s string) bool { return taken[s] })
	assert.Equal(t, "hotel-admin-2", slug)
}

func TestUniqueEmptyBase(t *testing.T) {
	slug := Unique("!!!", func(string) bool { return false })
	assert.NotEmpty(t, slug)
}
