package bracket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds each remote request.
const DefaultTimeout = 2 * time.Second

// Remote queries a bracket service over HTTP:
//
//	GET {base}/entry?expr=...                  -> {"expr": ..., "properties": {...}}
//	GET {base}/complete?prefix=...&limit=...   -> ["expr", ...]
//
// A 404 from /entry maps to ErrNotFound.
type Remote struct {
	base   string
	client *http.Client
}

// NewRemote creates a client for the service at base. A nil client uses one
// with DefaultTimeout.
func NewRemote(base string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Remote{base: strings.TrimSuffix(base, "/"), client: client}
}

type remoteEntry struct {
	Expr       string              `json:"expr"`
	Properties map[string][]string `json:"properties"`
}

// Entry implements Service.
func (r *Remote) Entry(ctx context.Context, expr string) (*Entry, error) {
	var body remoteEntry
	found, err := r.get(ctx, "/entry", url.Values{"expr": {expr}}, &body)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, expr)
	}
	if body.Expr == "" {
		body.Expr = expr
	}
	return &Entry{Expr: body.Expr, Properties: body.Properties}, nil
}

// Complete implements Service.
func (r *Remote) Complete(ctx context.Context, prefix string, limit int) ([]string, error) {
	var out []string
	q := url.Values{"prefix": {prefix}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if _, err := r.get(ctx, "/complete", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// get decodes the JSON response of path into v. It reports false for 404.
func (r *Remote) get(ctx context.Context, path string, q url.Values, v any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base+path+"?"+q.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("bracket: remote: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("bracket: remote %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("bracket: remote %s: status %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return false, fmt.Errorf("bracket: remote %s: decode: %w", path, err)
	}
	return true, nil
}
