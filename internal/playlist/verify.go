package playlist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// ErrUntrustedURL means a library URL points outside the media library.
var ErrUntrustedURL = errors.New("url is not in the media library")

// HTTPVerifier checks library images with a HEAD request. Only URLs under
// one of the library's public bases are requested.
type HTTPVerifier struct {
	Client *http.Client
	bases  []*url.URL
}

func NewHTTPVerifier(timeout time.Duration, libraryBases ...string) (*HTTPVerifier, error) {
	v := &HTTPVerifier{Client: &http.Client{
		Timeout: timeout,
		// a redirect could lead anywhere
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}}
	for _, raw := range libraryBases {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid library base %q", raw)
		}
		v.bases = append(v.bases, u)
	}
	return v, nil
}

func (v *HTTPVerifier) Verify(ctx context.Context, raw string) error {
	// data URIs and server-relative uploads are already in hand
	if strings.HasPrefix(raw, "data:") || (strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//")) {
		return nil
	}
	if !v.inLibrary(raw) {
		return ErrUntrustedURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, raw, nil)
	if err != nil {
		return err
	}
	resp, err := v.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (v *HTTPVerifier) inLibrary(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.User != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	clean := path.Clean("/" + u.Path)
	for _, base := range v.bases {
		if !strings.EqualFold(u.Scheme, base.Scheme) || !strings.EqualFold(u.Host, base.Host) {
			continue
		}
		prefix := strings.TrimSuffix(path.Clean("/"+base.Path), "/")
		if prefix == "" || clean == prefix || strings.HasPrefix(clean, prefix+"/") {
			return true
		}
	}
	return false
}
