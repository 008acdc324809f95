package dayworker

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/IshaanNene/gymscraper/internal/browserpool"
	"github.com/IshaanNene/gymscraper/internal/types"
)

type capturedRequest struct {
	method  string
	url     string
	headers map[string]string
	body    string
}

// DiscoverPattern attaches a request observer to page before navigate runs,
// then scans every captured XHR/fetch for a date-valued URL query parameter
// or JSON body field, returning the first match as a DayApiPattern. Every
// hijacked request is resumed unconditionally so the listener can never
// stall navigation, and the hijack router is always stopped before return.
func DiscoverPattern(page types.BrowserPage, navigate func() error, referenceDate time.Time) (types.DayApiPattern, error) {
	rodPage, ok := browserpool.UnwrapRod(page)
	if !ok {
		return types.DayApiPattern{}, fmt.Errorf("dayworker: page does not support request interception")
	}

	var mu sync.Mutex
	var captured []capturedRequest

	router := rodPage.HijackRequests()
	router.MustAdd("*", func(ctx *rod.Hijack) {
		defer func() { _ = ctx.ContinueRequest(&proto.FetchContinueRequest{}) }()

		method := ctx.Request.Method()
		reqURL := ctx.Request.URL().String()
		if !looksLikeXHR(method, reqURL) {
			return
		}

		headers := make(map[string]string)
		for k, v := range ctx.Request.Headers() {
			if isExcludedHeader(k) {
				continue
			}
			headers[k] = v.String()
		}

		mu.Lock()
		captured = append(captured, capturedRequest{
			method:  method,
			url:     reqURL,
			headers: headers,
			body:    ctx.Request.Body(),
		})
		mu.Unlock()
	})
	go router.Run()
	defer router.Stop()

	if err := navigate(); err != nil {
		return types.DayApiPattern{}, fmt.Errorf("dayworker: navigate during discovery: %w", err)
	}

	mu.Lock()
	snapshot := make([]capturedRequest, len(captured))
	copy(snapshot, captured)
	mu.Unlock()

	for _, req := range snapshot {
		if pattern, ok := matchURLDate(req, referenceDate); ok {
			return pattern, nil
		}
		if pattern, ok := matchBodyDate(req, referenceDate); ok {
			return pattern, nil
		}
	}
	return types.DayApiPattern{}, fmt.Errorf("dayworker: no date-parameterised request observed")
}

func looksLikeXHR(method, rawURL string) bool {
	if method == "POST" || method == "PUT" {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(u.Path, "api") || len(u.Query()) > 0
}

func matchURLDate(req capturedRequest, ref time.Time) (types.DayApiPattern, bool) {
	u, err := url.Parse(req.url)
	if err != nil {
		return types.DayApiPattern{}, false
	}
	q := u.Query()
	for param, values := range q {
		for _, v := range values {
			if matchesDate(v, ref) {
				shape := detectShape(v)
				q.Set(param, "{{date}}")
				u.RawQuery = q.Encode()
				return types.DayApiPattern{
					UrlTemplate: strings.Replace(u.String(), url.QueryEscape("{{date}}"), "{{date}}", 1),
					Method:      req.method,
					DateParam:   param,
					Headers:     req.headers,
				}, shape != shapeNone
			}
		}
	}
	return types.DayApiPattern{}, false
}

func matchBodyDate(req capturedRequest, ref time.Time) (types.DayApiPattern, bool) {
	if req.body == "" {
		return types.DayApiPattern{}, false
	}
	for _, token := range strings.FieldsFunc(req.body, func(r rune) bool {
		return r == '"' || r == ':' || r == ',' || r == '{' || r == '}' || r == ' '
	}) {
		if matchesDate(token, ref) {
			bodyTemplate := strings.Replace(req.body, token, "{{date}}", 1)
			return types.DayApiPattern{
				UrlTemplate:  req.url,
				Method:       req.method,
				BodyTemplate: bodyTemplate,
				Headers:      req.headers,
			}, true
		}
	}
	return types.DayApiPattern{}, false
}
