package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_FindsDayTimeAdjacentLines(t *testing.T) {
	html := `<html><title>Acme Gym</title><body>
		<div>Monday 6:00 PM Yoga with Jane</div>
		<div>Tuesday 7:00 AM Spin with John</div>
		<div>no schedule info here</div>
	</body></html>`

	g := New()
	result, err := g.Extract(html, "https://acme.test/schedule")
	require.NoError(t, err)

	assert.Equal(t, "Acme Gym", result.Organization.Name)
	assert.Equal(t, "https://acme.test", result.Organization.WebsiteUrl)
	require.Len(t, result.Classes, 2)
	assert.Contains(t, result.Classes[0].Name, "Yoga")
	assert.Contains(t, result.Classes[1].Name, "Spin")
}

func TestExtract_NoTitleFallsBackToUnknown(t *testing.T) {
	html := `<html><body>Monday 6:00 PM Yoga</body></html>`
	g := New()
	result, err := g.Extract(html, "https://acme.test/schedule")
	require.NoError(t, err)
	assert.Equal(t, "unknown", result.Organization.Name)
}

func TestExtract_NoMatchesYieldsNoClasses(t *testing.T) {
	html := `<html><title>Acme Gym</title><body>Nothing schedule-shaped here.</body></html>`
	g := New()
	result, err := g.Extract(html, "https://acme.test/schedule")
	require.NoError(t, err)
	assert.Empty(t, result.Classes)
}
