// Package sink implements the external upsert collaborators: a Supabase
// PostgREST client as the authoritative sink, and a best-effort Mongo
// audit log alongside it.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/IshaanNene/gymscraper/internal/types"
)

// Supabase is a PostgREST client performing bulk upserts via
// Prefer: resolution=merge-duplicates, matching Supabase's documented
// upsert semantics.
type Supabase struct {
	baseURL        string
	serviceRoleKey string
	client         *http.Client
}

// NewSupabase constructs a Supabase sink. baseURL is the project's REST
// root (e.g. "https://xyz.supabase.co").
func NewSupabase(baseURL, serviceRoleKey string) *Supabase {
	return &Supabase{
		baseURL:        baseURL,
		serviceRoleKey: serviceRoleKey,
		client:         &http.Client{Timeout: 30 * time.Second},
	}
}

type orgRow struct {
	Name       string `json:"name"`
	WebsiteURL string `json:"website_url"`
}

// UpsertOrganization implements types.UpsertSink, keyed on website_url.
func (s *Supabase) UpsertOrganization(org types.Organization) (string, error) {
	rows := []orgRow{{Name: org.Name, WebsiteURL: org.WebsiteUrl}}
	if err := s.post("organizations", rows); err != nil {
		return "", &types.PersistError{Stage: "organization", Err: err}
	}
	return org.WebsiteUrl, nil
}

type locationRow struct {
	OrganizationRef string `json:"organization_ref"`
	Name            string `json:"name"`
	Address         string `json:"address,omitempty"`
	IanaTimezone    string `json:"iana_timezone"`
}

// UpsertLocations implements types.UpsertSink, keyed on (orgRef, name).
func (s *Supabase) UpsertLocations(orgRef string, locations []types.Location) (map[string]string, error) {
	if len(locations) == 0 {
		return map[string]string{}, nil
	}
	rows := make([]locationRow, 0, len(locations))
	refs := make(map[string]string, len(locations))
	for _, l := range locations {
		rows = append(rows, locationRow{
			OrganizationRef: orgRef,
			Name:            l.Name,
			Address:         l.Address,
			IanaTimezone:    l.IanaTimezone,
		})
		refs[l.Name] = orgRef + "|" + l.Name
	}
	if err := s.post("locations", rows); err != nil {
		return nil, &types.PersistError{Stage: "locations", Err: err}
	}
	return refs, nil
}

type classRow struct {
	LocationRef     string  `json:"location_ref"`
	Name            string  `json:"name"`
	StartInstantUtc string  `json:"start_instant_utc"`
	EndInstantUtc   *string `json:"end_instant_utc,omitempty"`
	Instructor      string  `json:"instructor,omitempty"`
	SpotsTotal      *int    `json:"spots_total,omitempty"`
}

// UpsertClasses implements types.UpsertSink, keyed on
// (locationRef, startInstant, name).
func (s *Supabase) UpsertClasses(classes []types.Class) (int, error) {
	if len(classes) == 0 {
		return 0, nil
	}
	rows := make([]classRow, 0, len(classes))
	for _, c := range classes {
		if !c.HasValidStart() {
			continue
		}
		row := classRow{
			LocationRef:     c.LocationRef,
			Name:            c.Name,
			StartInstantUtc: c.StartInstantUtc.UTC().Format(time.RFC3339),
			Instructor:      c.Instructor,
			SpotsTotal:      c.SpotsTotal,
		}
		if c.EndInstantUtc != nil {
			end := c.EndInstantUtc.UTC().Format(time.RFC3339)
			row.EndInstantUtc = &end
		}
		rows = append(rows, row)
	}
	if err := s.post("classes", rows); err != nil {
		return 0, &types.PersistError{Stage: "classes", Err: err}
	}
	return len(rows), nil
}

func (s *Supabase) post(table string, rows any) error {
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("sink: encode %s rows: %w", table, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/rest/v1/"+table, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sink: build request for %s: %w", table, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.serviceRoleKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceRoleKey)
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sink: post %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sink: %s upsert failed with status %d: %s", table, resp.StatusCode, string(respBody))
	}
	return nil
}
