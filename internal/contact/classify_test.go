package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/listing-scraper/internal/model"
)

func TestClassifySocials_Basic(t *testing.T) {
	got := ClassifySocials([]string{"foo.com/facebook/x", "foo.com/twitter/y"})

	assert.Len(t, got, len(model.Platforms))
	assert.Equal(t, "foo.com/facebook/x", got["facebook"])
	assert.Equal(t, "foo.com/twitter/y", got["twitter"])
	for _, p := range model.Platforms {
		if p == "facebook" || p == "twitter" {
			continue
		}
		assert.Empty(t, got[p], p)
	}
}

func TestClassifySocials_FirstPlatformInOrderWins(t *testing.T) {
	// Mentions both youtube and facebook; youtube comes first in the list.
	got := ClassifySocials([]string{"https://facebook.com/share?u=youtube.com/watch"})
	assert.Equal(t, "https://facebook.com/share?u=youtube.com/watch", got["youtube"])
	assert.Empty(t, got["facebook"])
}

func TestClassifySocials_FirstLinkPerPlatformKept(t *testing.T) {
	got := ClassifySocials([]string{
		"https://instagram.com/first",
		"https://instagram.com/second",
	})
	assert.Equal(t, "https://instagram.com/first", got["instagram"])
}

func TestClassifySocials_UnknownDropped(t *testing.T) {
	got := ClassifySocials([]string{"https://myspace.com/band"})
	for _, p := range model.Platforms {
		assert.Empty(t, got[p])
	}
}

func TestClassifySocials_Idempotent(t *testing.T) {
	links := []string{"https://github.com/acme", "https://www.linkedin.com/company/acme", "https://medium.com/@acme"}
	assert.Equal(t, ClassifySocials(links), ClassifySocials(links))
}

func TestClassifySocials_MixedCasePathKeepsPlatform(t *testing.T) {
	got := ClassifySocials([]string{
		"https://facebook.com/YouTubeTips",
		"https://youtube.com/c/acme",
	})
	assert.Equal(t, "https://facebook.com/YouTubeTips", got["facebook"])
	assert.Equal(t, "https://youtube.com/c/acme", got["youtube"])
}

func TestClassifySocials_CaseSensitive(t *testing.T) {
	got := ClassifySocials([]string{"https://www.Facebook.com/Acme"})
	assert.Empty(t, got["facebook"])
}

func TestSelectEmail(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"first valid after stripping query", []string{"a@b.com?x=1", "not-an-email", "c@d.org"}, "a@b.com"},
		{"skips invalid", []string{"not-an-email", "c@d.org"}, "c@d.org"},
		{"strips semicolon suffix", []string{"info@acme.io;jsessionid=1"}, "info@acme.io"},
		{"short tld rejected", []string{"x@y.c"}, ""},
		{"none valid", []string{"nope", "@missing.com"}, ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectEmail(tt.candidates))
		})
	}
}
