package planner

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePage struct{ html string }

func (f *fakePage) HTML() (string, error)                                          { return f.html, nil }
func (f *fakePage) URL() string                                                    { return "https://acme.test" }
func (f *fakePage) ClickHumanlike(string) error                                    { return nil }
func (f *fakePage) HasSelector(string) (bool, error)                               { return false, nil }
func (f *fakePage) TypeInto(string, string, func(rune) time.Duration) error        { return nil }
func (f *fakePage) Navigate(string) error                                          { return nil }
func (f *fakePage) Cookies() ([]byte, error)                                       { return nil, nil }
func (f *fakePage) SetCookies([]byte) error                                        { return nil }

func TestExtractJSON_FindsBalancedObject(t *testing.T) {
	raw := "Here is the plan: {\"schedule_selector\": \".sched\", \"auth_wall_detected\": false} thanks"
	assert.Equal(t, `{"schedule_selector": ".sched", "auth_wall_detected": false}`, extractJSON(raw))
}

func TestExtractJSON_NoObjectReturnsEmpty(t *testing.T) {
	assert.Equal(t, "{}", extractJSON("no json here"))
}

func TestPlanPage_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"schedule_selector\":\".sched\",\"next_button_selector\":\"\",\"load_more_selector\":\"\",\"auth_wall_detected\":true}"}}]}`))
	}))
	defer srv.Close()

	p := New("test-key", 50, nopLogger())
	p.endpoint = srv.URL

	plan, err := p.PlanPage(&fakePage{html: "<html></html>"})
	require.NoError(t, err)
	assert.Equal(t, ".sched", plan.ScheduleSelector)
	assert.True(t, plan.AuthWallDetected)
}

func TestPlanPage_BudgetExhaustedReturnsError(t *testing.T) {
	p := New("test-key", 0, nopLogger())
	_, err := p.PlanPage(&fakePage{html: "<html></html>"})
	require.Error(t, err)
}
