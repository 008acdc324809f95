package fetchlayer

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	utls "github.com/refraction-networking/utls"
)

// newLightClient builds an http.Client whose TLS Client Hello impersonates
// a current desktop Chrome install via utls, matching the light path's
// requirement in spec.md §4.3. Response compression is handled manually
// (DisableCompression) so brotli, absent from net/http, can be decoded
// alongside gzip/deflate.
func newLightClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout}
	transport := &http.Transport{
		DisableCompression: true,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			rawConn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, splitErr := net.SplitHostPort(addr)
			if splitErr != nil {
				host = addr
			}
			uconn := utls.UClient(rawConn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
			if err := uconn.HandshakeContext(ctx); err != nil {
				rawConn.Close()
				return nil, fmt.Errorf("fetchlayer: utls handshake: %w", err)
			}
			return uconn, nil
		},
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// lightFetch issues a single impersonated HTTPS GET and returns the
// decompressed body, status code, and headers.
func lightFetch(ctx context.Context, client *http.Client, rawURL, userAgent string) ([]byte, int, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("fetchlayer: build request: %w", err)
	}
	for k, v := range chromeHeaderSet(userAgent) {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()

	body, err := decompressBody(resp)
	if err != nil {
		return nil, resp.StatusCode, resp.Header, err
	}
	return body, resp.StatusCode, resp.Header, nil
}

func decompressBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("fetchlayer: gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		reader = flate.NewReader(resp.Body)
	case "br":
		reader = brotli.NewReader(resp.Body)
	}
	body, err := io.ReadAll(io.LimitReader(reader, 50<<20))
	if err != nil {
		return nil, fmt.Errorf("fetchlayer: read body: %w", err)
	}
	return body, nil
}
