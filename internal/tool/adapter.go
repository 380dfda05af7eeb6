package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/dirsearch/internal/domain"
	"github.com/kailas-cloud/dirsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/dirsearch/internal/domain/search/query"
	"github.com/kailas-cloud/dirsearch/internal/domain/search/result"
)

// Searcher answers directory queries.
type Searcher interface {
	Search(ctx context.Context, tenant, listName string, q query.Query) ([]result.Result, error)
}

// Caller identifies an agent invoking the search tool. Lists is the
// allow-list of list names the caller may query; "*" grants all lists of
// the caller's tenant.
type Caller struct {
	Name   string
	Tenant string
	Lists  []string
}

// Allows reports whether the caller may query the named list.
func (c Caller) Allows(listName string) bool {
	for _, l := range c.Lists {
		if l == "*" || l == listName {
			return true
		}
	}
	return false
}

// Request is one tool invocation.
type Request struct {
	List    string
	Query   string
	Tag     string
	Filters map[string]string
}

// Options configures how the adapter searches on behalf of callers.
type Options struct {
	Mode       mode.Mode
	MaxResults int
}

// Adapter turns tool invocations into directory searches and renders the
// hits as plain text an agent can hand to a person.
type Adapter struct {
	searcher Searcher
	opts     Options
	logger   *zap.Logger
}

// New creates a tool adapter.
func New(searcher Searcher, opts Options, logger *zap.Logger) *Adapter {
	if opts.Mode == "" {
		opts.Mode = mode.FTS
	}
	return &Adapter{searcher: searcher, opts: opts, logger: logger}
}

// Invoke checks the caller's allow-list, runs the search and formats the
// results. A list outside the allow-list yields domain.ErrAccessDenied,
// whether or not the list exists.
func (a *Adapter) Invoke(ctx context.Context, caller Caller, req Request) (string, error) {
	if !caller.Allows(req.List) {
		a.logger.Warn("tool call denied",
			zap.String("caller", caller.Name),
			zap.String("tenant", caller.Tenant),
			zap.String("list", req.List),
		)
		return "", fmt.Errorf("%w: caller %q may not query list %q",
			domain.ErrAccessDenied, caller.Name, req.List)
	}

	q, err := query.New(req.Query, req.Tag, req.Filters, a.opts.Mode, a.opts.MaxResults)
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	results, err := a.searcher.Search(ctx, caller.Tenant, req.List, q)
	if err != nil {
		return "", err
	}

	return Format(req.List, results), nil
}

// Format renders search results as one paragraph per entry. The empty case
// gets an explicit message so agents do not treat it as an error.
func Format(listName string, results []result.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No entries in %q match the query. Try a broader search term or drop a filter.", listName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matching entries in %q:\n", len(results), listName)

	for i := range results {
		r := &results[i]
		e := r.Entry()

		b.WriteString("\n")
		b.WriteString(e.Name())
		if r.Ranked() {
			fmt.Fprintf(&b, " (relevance %.2f)", r.Score())
		}
		b.WriteString("\n")

		if tags := e.Tags(); len(tags) > 0 {
			fmt.Fprintf(&b, "Tags: %s\n", strings.Join(tags, ", "))
		}
		writeKV(&b, "", e.Attributes())
		writeKV(&b, "Contact ", e.ContactInfo())
	}

	return b.String()
}

func writeKV(b *strings.Builder, prefix string, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s%s: %s\n", prefix, displayKey(k), m[k])
	}
}

func displayKey(k string) string {
	k = strings.ReplaceAll(k, "_", " ")
	if k == "" {
		return k
	}
	return strings.ToUpper(k[:1]) + k[1:]
}
