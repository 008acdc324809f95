// Package orchestrator sequences the nine-stage fetch-validate-retry
// pipeline: compliance, trap pre-check, fetch, optional navigation
// planning, extraction dispatch, validation with a single targeted retry,
// trap content check, normalization, and ordered persistence.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/gymscraper/internal/compliance"
	"github.com/IshaanNene/gymscraper/internal/fetchlayer"
	"github.com/IshaanNene/gymscraper/internal/normalize"
	"github.com/IshaanNene/gymscraper/internal/session"
	"github.com/IshaanNene/gymscraper/internal/sink"
	"github.com/IshaanNene/gymscraper/internal/trap"
	"github.com/IshaanNene/gymscraper/internal/types"
	"github.com/IshaanNene/gymscraper/internal/validator"
)

// Deps bundles every external collaborator the orchestrator sequences.
// Planner may be nil (no LLM configured); every other field is required.
type Deps struct {
	Gate     *compliance.Gate
	Detector *trap.Detector
	Fetch    *fetchlayer.Layer
	Session  *session.Manager
	Sink     types.UpsertSink
	Planner  types.Planner
	Audit    *sink.MongoAudit
	Logger   *slog.Logger
}

// Orchestrator runs one URL through the full pipeline.
type Orchestrator struct {
	deps Deps
}

// New constructs an Orchestrator from deps.
func New(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{deps: deps}
}

// Run executes the nine stages against rawURL. gymTimezone is the default
// IANA zone applied to classes whose location carries none.
func (o *Orchestrator) Run(ctx context.Context, rawURL string, gymTimezone string) (types.RunResult, error) {
	runID := uuid.New().String()
	log := o.deps.Logger.With("url", rawURL, "run_id", runID)
	var warnings []string

	// Stage 2: trap pre-check.
	if res := o.deps.Detector.CheckUrl(rawURL); !res.Safe {
		return types.RunResult{}, &types.TrapError{URL: rawURL, Reason: res.Reason}
	}

	// Stage 1 (compliance preflight) + stage 3 (gate wait + fetch).
	fetchResult, err := o.doFetch(ctx, rawURL, fetchlayer.Options{})
	if err != nil {
		return types.RunResult{}, err
	}
	defer func() { disposeFetch(fetchResult, log) }()

	if len(fetchResult.Body) == 0 && fetchResult.PageHandle == nil {
		return types.RunResult{}, fmt.Errorf("orchestrator: %w for %s", types.ErrEmptyResponse, rawURL)
	}

	html, err := o.currentHTML(fetchResult)
	if err != nil {
		return types.RunResult{}, err
	}
	if html == "" {
		return types.RunResult{}, fmt.Errorf("orchestrator: %w for %s", types.ErrEmptyResponse, rawURL)
	}

	// Stage 4: optional LLM navigation plan.
	if fetchResult.PageHandle != nil && o.deps.Planner != nil {
		plan, perr := o.deps.Planner.PlanPage(fetchResult.PageHandle)
		if perr != nil {
			log.Warn("planner failed", "error", perr)
		} else {
			html, fetchResult, err = o.applyPlan(ctx, rawURL, plan, fetchResult, &warnings)
			if err != nil {
				return types.RunResult{}, err
			}
		}
	}

	// Stage 5: extraction dispatch.
	result, err := selectExtractor(html).Extract(html, rawURL)
	if err != nil {
		return types.RunResult{}, fmt.Errorf("orchestrator: extract %s: %w", rawURL, err)
	}

	// Stage 6: validate, with exactly one targeted retry.
	report := validator.Validate(result, fetchResult.PageHandle, html)
	if !report.Valid && report.RetryHint != types.RetryHintNone {
		retried, retriedHTML, retriedResult, ok := o.retryOnHint(ctx, rawURL, report.RetryHint, &warnings)
		if ok {
			disposeFetch(fetchResult, log)
			fetchResult, html, result = retried, retriedHTML, retriedResult
		} else {
			warnings = append(warnings, fmt.Sprintf("retry on hint %q failed; proceeding with original extraction", report.RetryHint))
		}
	}

	// Stage 7: trap content check (warn only).
	if cres := o.deps.Detector.CheckContent(rawURL, html, len(result.Classes)); !cres.Safe {
		warnings = append(warnings, fmt.Sprintf("trap content check: %s", cres.Reason))
	}

	// Stage 8: normalize each class's start time from RawTimeText.
	// EndInstantUtc is not derived here.
	defaultTZ := gymTimezone
	if defaultTZ == "" {
		defaultTZ = "UTC"
	}
	now := time.Now()
	for i := range result.Classes {
		tz := defaultTZ
		for _, loc := range result.Locations {
			if loc.Name == result.Classes[i].LocationRef && loc.IanaTimezone != "" {
				tz = loc.IanaTimezone
				break
			}
		}
		if result.Classes[i].RawTimeText == "" {
			continue
		}
		norm, nerr := normalize.Normalize(result.Classes[i].RawTimeText, tz, now)
		if nerr != nil {
			warnings = append(warnings, fmt.Sprintf("normalize %q: %v", result.Classes[i].RawTimeText, nerr))
			continue
		}
		result.Classes[i].StartInstantUtc = norm.InstantUtc
		if norm.Warning != "" {
			warnings = append(warnings, norm.Warning)
		}
	}

	if o.deps.Audit != nil {
		o.deps.Audit.Record(ctx, rawURL, result)
	}

	// Stage 9: persist organization -> locations -> classes.
	return o.persist(runID, result, warnings)
}

// doFetch folds the compliance preflight (robots + rate limiter) into one
// fetch call, matching "compliance preflight is implicit in the fetch
// call" from the pipeline contract.
func (o *Orchestrator) doFetch(ctx context.Context, rawURL string, opts fetchlayer.Options) (types.FetchResult, error) {
	if !o.deps.Gate.IsAllowed(rawURL) {
		return types.FetchResult{}, &types.TrapError{URL: rawURL, Reason: "disallowed by robots.txt"}
	}
	if err := o.deps.Gate.WaitPage(ctx, rawURL); err != nil {
		return types.FetchResult{}, fmt.Errorf("orchestrator: rate limiter wait: %w", err)
	}

	if err := o.deps.Session.Gate().Wait(ctx); err != nil {
		return types.FetchResult{}, fmt.Errorf("orchestrator: session gate: %w", err)
	}

	res, err := o.deps.Fetch.Fetch(ctx, rawURL, opts)
	if err != nil {
		var paywall *types.PaywallError
		if errors.As(err, &paywall) {
			return types.FetchResult{}, err
		}
		return types.FetchResult{}, fmt.Errorf("orchestrator: fetch %s: %w", rawURL, err)
	}
	if res.PageHandle != nil {
		if _, lerr := o.deps.Session.CheckForLoginWall(res.PageHandle); lerr != nil {
			o.deps.Logger.Warn("login wall check failed", "error", lerr)
		}
	}
	return res, nil
}

func (o *Orchestrator) currentHTML(res types.FetchResult) (string, error) {
	if res.PageHandle != nil {
		return res.PageHandle.HTML()
	}
	return string(res.Body), nil
}

// applyPlan handles an auth wall (re-authenticate then force a browser
// refetch) and an available load-more control (click then re-capture).
func (o *Orchestrator) applyPlan(ctx context.Context, rawURL string, plan types.Plan, fetchResult types.FetchResult, warnings *[]string) (string, types.FetchResult, error) {
	if plan.AuthWallDetected {
		if err := o.deps.Session.Login(fetchResult.PageHandle, func() (string, error) {
			return fetchResult.PageHandle.HTML()
		}); err != nil {
			return "", types.FetchResult{}, err
		}
		disposeFetch(fetchResult, o.deps.Logger)
		refetched, err := o.doFetch(ctx, rawURL, fetchlayer.Options{ForceBrowser: true})
		if err != nil {
			return "", types.FetchResult{}, err
		}
		fetchResult = refetched
	}

	if plan.LoadMoreSelector != "" && fetchResult.PageHandle != nil {
		if err := fetchResult.PageHandle.ClickHumanlike(plan.LoadMoreSelector); err != nil {
			*warnings = append(*warnings, fmt.Sprintf("load-more click failed: %v", err))
		}
	}

	html, err := o.currentHTML(fetchResult)
	return html, fetchResult, err
}

// retryOnHint applies the fetch-option change the validator's hint calls
// for, refetches, re-extracts, and re-validates. ok is false if the retry
// itself errors or remains invalid; the caller then keeps the original
// extraction and records a warning.
func (o *Orchestrator) retryOnHint(ctx context.Context, rawURL string, hint types.RetryHint, warnings *[]string) (types.FetchResult, string, types.ScrapeResult, bool) {
	opts := fetchlayer.Options{ForceBrowser: true}
	switch hint {
	case types.RetryHintWaitLonger:
		opts.ExtraSettle = 5 * time.Second
	case types.RetryHintSwitchToBrowser, types.RetryHintPaginateForward, types.RetryHintReAuthenticate:
		// force-browser alone, per the retry lattice.
	default:
		return types.FetchResult{}, "", types.ScrapeResult{}, false
	}

	res, err := o.doFetch(ctx, rawURL, opts)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("retry fetch failed: %v", err))
		return types.FetchResult{}, "", types.ScrapeResult{}, false
	}
	html, err := o.currentHTML(res)
	if err != nil || html == "" {
		disposeFetch(res, o.deps.Logger)
		return types.FetchResult{}, "", types.ScrapeResult{}, false
	}

	result, err := selectExtractor(html).Extract(html, rawURL)
	if err != nil {
		disposeFetch(res, o.deps.Logger)
		return types.FetchResult{}, "", types.ScrapeResult{}, false
	}

	report := validator.Validate(result, res.PageHandle, html)
	if !report.Valid {
		disposeFetch(res, o.deps.Logger)
		return types.FetchResult{}, "", types.ScrapeResult{}, false
	}
	return res, html, result, true
}

// persist upserts organization, then locations, then classes, attaching a
// default location to any class whose LocationRef does not match a known
// location name.
func (o *Orchestrator) persist(runID string, result types.ScrapeResult, warnings []string) (types.RunResult, error) {
	orgRef, err := o.deps.Sink.UpsertOrganization(result.Organization)
	if err != nil {
		return types.RunResult{}, err
	}

	locRefs, err := o.deps.Sink.UpsertLocations(orgRef, result.Locations)
	if err != nil {
		return types.RunResult{}, err
	}

	defaultLocName := ""
	if len(result.Locations) > 0 {
		defaultLocName = result.Locations[0].Name
	}
	classes := make([]types.Class, len(result.Classes))
	copy(classes, result.Classes)
	for i := range classes {
		if _, ok := locRefs[classes[i].LocationRef]; !ok && defaultLocName != "" {
			classes[i].LocationRef = defaultLocName
			warnings = append(warnings, fmt.Sprintf("class %q attached to default location %q (orphaned)", classes[i].Name, defaultLocName))
		}
	}

	count, err := o.deps.Sink.UpsertClasses(classes)
	if err != nil {
		return types.RunResult{}, err
	}

	return types.RunResult{
		RunID:           runID,
		OrganizationRef: orgRef,
		LocationRefs:    locRefs,
		ClassesUpserted: count,
		Warnings:        warnings,
	}, nil
}

func disposeFetch(res types.FetchResult, log *slog.Logger) {
	if res.ContextHandle != nil {
		if err := res.ContextHandle.Dispose(); err != nil {
			log.Warn("dispose browser context failed", "error", err)
		}
	}
}
