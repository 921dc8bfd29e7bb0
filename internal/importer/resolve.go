package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/langarchive/catalog/internal/catalog"
	"github.com/langarchive/catalog/internal/log"
	"github.com/langarchive/catalog/internal/store"
)

var errLookup = errors.New("lookup failed")

// refResolver memoizes reference lookups for one import. A reference is
// written as "#id" or as the exact label of the referenced record.
type refResolver struct {
	ctx      context.Context
	resolver Resolver
	byID     map[string]map[int64]catalog.Ref
	byLabel  map[string]map[string][]catalog.Ref
	// err is the first transport failure; it aborts the import.
	err error
}

func newRefResolver(ctx context.Context, r Resolver) *refResolver {
	return &refResolver{
		ctx:      ctx,
		resolver: r,
		byID:     make(map[string]map[int64]catalog.Ref),
		byLabel:  make(map[string]map[string][]catalog.Ref),
	}
}

func (r *refResolver) lookup(kind, text string) (catalog.Ref, error) {
	if r.resolver == nil {
		return catalog.Ref{}, fmt.Errorf("cannot resolve %q", text)
	}
	if strings.HasPrefix(text, "#") {
		id, err := strconv.ParseInt(strings.TrimPrefix(text, "#"), 10, 64)
		if err != nil {
			return catalog.Ref{}, fmt.Errorf("%q is not a record id", text)
		}
		return r.lookupID(kind, id)
	}
	return r.lookupLabel(kind, text)
}

func (r *refResolver) lookupID(kind string, id int64) (catalog.Ref, error) {
	cache := r.byID[kind]
	if cache == nil {
		cache = make(map[int64]catalog.Ref)
		r.byID[kind] = cache
	}
	if ref, ok := cache[id]; ok {
		return ref, nil
	}
	found, err := r.resolver.Resolve(r.ctx, kind, []int64{id})
	if err != nil {
		return catalog.Ref{}, r.fail(kind, err)
	}
	ref, ok := found[id]
	if !ok {
		return catalog.Ref{}, fmt.Errorf("%s #%d does not exist", kind, id)
	}
	cache[id] = ref
	return ref, nil
}

func (r *refResolver) lookupLabel(kind, label string) (catalog.Ref, error) {
	cache := r.byLabel[kind]
	if cache == nil {
		cache = make(map[string][]catalog.Ref)
		r.byLabel[kind] = cache
	}
	key := strings.ToLower(label)
	matches, ok := cache[key]
	if !ok {
		candidates, err := r.resolver.Search(r.ctx, kind, label, store.Page{Limit: 50})
		if err != nil {
			return catalog.Ref{}, r.fail(kind, err)
		}
		for _, c := range candidates {
			if strings.EqualFold(c.Label, label) {
				matches = append(matches, c)
			}
		}
		cache[key] = matches
	}
	switch len(matches) {
	case 0:
		return catalog.Ref{}, fmt.Errorf("no %s is named %q", kind, label)
	case 1:
		return matches[0], nil
	}
	return catalog.Ref{}, fmt.Errorf("%q matches %d %s; use #id", label, len(matches), kind)
}

func (r *refResolver) fail(kind string, err error) error {
	log.ErrorErr(log.CatImport, "reference lookup failed", err, "kind", kind)
	if r.err == nil {
		r.err = fmt.Errorf("%w: %w", errLookup, err)
	}
	return r.err
}
