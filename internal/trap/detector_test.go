package trap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckUrl_VisitedAfterContentCheck(t *testing.T) {
	d := New(5)
	url := "https://x.test/schedule"

	res := d.CheckUrl(url)
	assert.True(t, res.Safe)

	content := d.CheckContent(url, "Monday 6:00 PM Yoga class", 1)
	assert.True(t, content.Safe)

	res2 := d.CheckUrl(url)
	assert.False(t, res2.Safe)
	assert.Equal(t, "URL already visited", res2.Reason)
}

func TestCheckUrl_RepeatedSegment(t *testing.T) {
	d := New(5)
	res := d.CheckUrl("https://x.test/a/a/a/a/")
	assert.False(t, res.Safe)
}

func TestCheckUrl_MaxDepth(t *testing.T) {
	d := New(1)
	d.stateFor("x.test").depth.Store(1)
	res := d.CheckUrl("https://x.test/page")
	assert.False(t, res.Safe)
}

func TestCheckUrl_TooManyQueryParams(t *testing.T) {
	d := New(5)
	var params []string
	for i := 0; i < 9; i++ {
		params = append(params, "p"+string(rune('a'+i))+"=1")
	}
	res := d.CheckUrl("https://x.test/page?" + strings.Join(params, "&"))
	assert.False(t, res.Safe)
}

func TestCheckUrl_InvalidURL(t *testing.T) {
	d := New(5)
	res := d.CheckUrl("::not a url::")
	assert.False(t, res.Safe)
}

func TestCheckContent_ShortContentAlwaysSafeOnDensity(t *testing.T) {
	d := New(5)
	res := d.CheckContent("https://x.test/page", "too short to matter", 0)
	assert.True(t, res.Safe)
}

func TestCheckContent_DuplicateHash(t *testing.T) {
	d := New(5)
	body := "Monday 6:00 PM Yoga"
	r1 := d.CheckContent("https://x.test/a", body, 1)
	assert.True(t, r1.Safe)
	r2 := d.CheckContent("https://x.test/b", body, 1)
	assert.False(t, r2.Safe)
}

func TestCheckContent_LowDensityZeroClasses(t *testing.T) {
	d := New(5)
	words := make([]string, 600)
	for i := range words {
		words[i] = "filler"
	}
	body := strings.Join(words, " ")
	res := d.CheckContent("https://x.test/page", body, 0)
	assert.False(t, res.Safe)
}

func TestReset(t *testing.T) {
	d := New(5)
	d.CheckContent("https://x.test/a", "Monday 6:00 PM Yoga", 1)
	d.Reset()
	res := d.CheckUrl("https://x.test/a")
	assert.True(t, res.Safe)
}
