// Package bracket answers bracket-handler lookups such as <item:minecraft:stick>.
// Lookups go to a local SQLite mirror, a remote HTTP service, or a chain of
// both.
package bracket

import (
	"context"
	"errors"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/jward/zenls/internal/store"
)

var log = commonlog.GetLogger("zenls.bracket")

// ErrNotFound is returned when no service knows an expression.
var ErrNotFound = errors.New("bracket: entry not found")

// Well-known entry property keys.
const (
	KeyName         = "_name"
	KeyIcon         = "_icon"
	KeyErrorMessage = "_errorMessage"
)

// Entry is the metadata of one bracket expression.
type Entry = store.Entry

// Service resolves bracket expressions. Implementations must be safe for
// concurrent use.
type Service interface {
	// Entry returns the metadata of expr, or ErrNotFound.
	Entry(ctx context.Context, expr string) (*Entry, error)
	// Complete returns up to limit known expressions starting with prefix.
	Complete(ctx context.Context, prefix string, limit int) ([]string, error)
}

// Expr returns the expression inside a bracket handler's source text, e.g.
// "item:minecraft:stick" for "<item:minecraft:stick>".
func Expr(text string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(text, "<"), ">"))
}

// Chain tries services in order. A service that reports ErrNotFound passes
// the lookup on; any other error stops it.
type Chain []Service

// Entry implements Service.
func (c Chain) Entry(ctx context.Context, expr string) (*Entry, error) {
	for _, svc := range c {
		e, err := svc.Entry(ctx, expr)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return e, err
	}
	return nil, ErrNotFound
}

// Complete implements Service. Results of all services are merged in order
// without duplicates; a failing service is logged and skipped.
func (c Chain) Complete(ctx context.Context, prefix string, limit int) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, svc := range c {
		got, err := svc.Complete(ctx, prefix, limit)
		if err != nil {
			log.Warningf("bracket completion for %q: %s", prefix, err)
			continue
		}
		for _, expr := range got {
			if seen[expr] {
				continue
			}
			seen[expr] = true
			out = append(out, expr)
			if limit > 0 && len(out) == limit {
				return out, nil
			}
		}
	}
	return out, nil
}
