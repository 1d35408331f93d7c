package offline

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var _ http.RoundTripper = (*Controller)(nil)

// RoundTrip implements the cache-first strategy:
//
//   - requests are only intercepted while the controller is active, and
//     never for bypass hosts, non-HTTP schemes or non-GET methods;
//   - a cache hit is served immediately and revalidated in the background,
//     so reads stay fast while the copy converges on fresh;
//   - a miss goes to the network, and a successful 200 response is stored in
//     the runtime cache on the way through;
//   - when the network fails, document requests fall back to the cached
//     shell so navigation still resolves offline.
func (c *Controller) RoundTrip(req *http.Request) (*http.Response, error) {
	if !c.intercepts(req) {
		return c.inner.RoundTrip(req)
	}

	key := req.URL.String()
	ctx := req.Context()

	if entry := c.match(ctx, key); entry != nil {
		c.revalidateInBackground(key)
		return entryToResponse(entry, req), nil
	}

	resp, err := c.inner.RoundTrip(req)
	if err != nil {
		if fallback := c.documentFallback(ctx, req); fallback != nil {
			c.logger.Debug("serving shell fallback", zap.String("url", key))
			return entryToResponse(fallback, req), nil
		}
		return nil, err
	}

	// Cache only successful responses
	if resp.StatusCode == http.StatusOK {
		entry, err := captureResponse(resp)
		if err != nil {
			return nil, err
		}
		c.mu.RLock()
		runtime := c.runtimeCache
		c.mu.RUnlock()
		if runtime != nil {
			if err := runtime.Put(ctx, key, entry); err != nil {
				c.logger.Warn("failed to cache response", zap.String("url", key), zap.Error(err))
			}
		}
		return entryToResponse(entry, req), nil
	}

	return resp, nil
}

// intercepts reports whether the request is subject to the cache strategy.
func (c *Controller) intercepts(req *http.Request) bool {
	if c.State() != StateActive {
		return false
	}
	if req.Method != http.MethodGet {
		return false
	}
	scheme := req.URL.Scheme
	if scheme != "http" && scheme != "https" {
		return false
	}
	if c.bypassHosts[strings.ToLower(req.URL.Hostname())] {
		return false
	}
	return true
}

// match looks the key up in the shell cache first, then the runtime cache.
func (c *Controller) match(ctx context.Context, key string) *Entry {
	c.mu.RLock()
	shell, runtime := c.shellCache, c.runtimeCache
	c.mu.RUnlock()

	if shell != nil {
		if entry, err := shell.Match(ctx, key); err == nil && entry != nil {
			return entry
		}
	}
	if runtime != nil {
		if entry, err := runtime.Match(ctx, key); err == nil && entry != nil {
			return entry
		}
	}
	return nil
}

// revalidateInBackground refreshes a cached entry from the network. The
// served response is unaffected; failures are recorded on the controller
// where callers can observe them.
func (c *Controller) revalidateInBackground(key string) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		entry, err := c.fetch(ctx, key)
		if err != nil {
			c.recordRevalidation(key, err)
			return
		}
		if entry.Status != http.StatusOK {
			c.recordRevalidation(key, nil)
			return
		}

		c.mu.RLock()
		runtime := c.runtimeCache
		c.mu.RUnlock()
		if runtime == nil {
			return
		}
		if err := runtime.Put(ctx, key, entry); err != nil {
			c.recordRevalidation(key, err)
			return
		}
		c.recordRevalidation(key, nil)
	}()
}

func (c *Controller) recordRevalidation(key string, err error) {
	status := &RevalidationStatus{
		URL:     key,
		At:      time.Now().UTC(),
		Success: err == nil,
	}
	if err != nil {
		status.Error = err.Error()
		c.revalidationFailures.Add(1)
		c.logger.Debug("background revalidation failed",
			zap.String("url", key), zap.Error(err))
	}
	c.lastRevalidation.Store(status)
}

// documentFallback returns the cached shell document for failed navigation
// requests, or nil when the request is not for a document or no shell is
// cached.
func (c *Controller) documentFallback(ctx context.Context, req *http.Request) *Entry {
	if !isDocumentRequest(req) {
		return nil
	}

	fallbackURL := req.URL.Scheme + "://" + req.URL.Host + "/index.html"
	return c.match(ctx, fallbackURL)
}

// isDocumentRequest reports whether the request is a navigation for an HTML
// document.
func isDocumentRequest(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

// captureResponse drains a network response into a cache entry. The response
// body is fully consumed and closed.
func captureResponse(resp *http.Response) (*Entry, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var url string
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}

	return &Entry{
		URL:      url,
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now().UTC(),
	}, nil
}

// entryToResponse materializes a cached entry as an http.Response.
func entryToResponse(entry *Entry, req *http.Request) *http.Response {
	header := entry.Header.Clone()
	if header == nil {
		header = http.Header{}
	}

	return &http.Response{
		StatusCode:    entry.Status,
		Status:        http.StatusText(entry.Status),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Body)),
		ContentLength: int64(len(entry.Body)),
		Request:       req,
	}
}
