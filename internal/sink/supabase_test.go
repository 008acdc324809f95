package sink

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/gymscraper/internal/types"
)

func TestUpsertOrganization(t *testing.T) {
	var gotPrefer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrefer = r.Header.Get("Prefer")
		assert.Equal(t, "/rest/v1/organizations", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewSupabase(srv.URL, "service-key")
	ref, err := s.UpsertOrganization(types.Organization{Name: "Acme Gym", WebsiteUrl: "https://acme.test"})
	require.NoError(t, err)
	assert.Equal(t, "https://acme.test", ref)
	assert.Contains(t, gotPrefer, "merge-duplicates")
}

func TestUpsertClasses_SkipsInvalidStart(t *testing.T) {
	var bodyReceived int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bodyReceived++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewSupabase(srv.URL, "service-key")
	classes := []types.Class{
		{Name: "Yoga", StartInstantUtc: time.Now()},
		{Name: "No Start"},
	}
	count, err := s.UpsertClasses(classes)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, bodyReceived)
}

func TestUpsertOrganization_FailureWrapsPersistError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSupabase(srv.URL, "service-key")
	_, err := s.UpsertOrganization(types.Organization{Name: "x", WebsiteUrl: "https://x.test"})
	require.Error(t, err)
	var persistErr *types.PersistError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "organization", persistErr.Stage)
}
