package graph

import (
	"context"
	"slices"
	"strings"
)

// MetaPropertyPrefix prefixes edge properties derived from meta Facts.
const MetaPropertyPrefix = "meta/"

// enrichment caches the PropertyHelper output of one element.
type enrichment struct {
	loaded bool
	props  []Property
}

// get loads enrichment properties once. Entries whose key is reserved by a static
// property are dropped. Failed loads are not cached.
func (c *enrichment) get(ctx context.Context, load func(context.Context) ([]PropertyEntry, error), reserved func(string) bool) ([]Property, error) {
	if c.loaded {
		return c.props, nil
	}
	entries, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.props = newestByKey(entries, reserved)
	c.loaded = true
	return c.props, nil
}

// newestByKey collapses entries sharing a key into the one with the highest timestamp,
// ordered by key.
func newestByKey(entries []PropertyEntry, reserved func(string) bool) []Property {
	newest := make(map[string]PropertyEntry, len(entries))
	for _, entry := range entries {
		if entry.Key == "" || reserved(entry.Key) {
			continue
		}
		if current, ok := newest[entry.Key]; ok && current.Timestamp >= entry.Timestamp {
			continue
		}
		newest[entry.Key] = entry
	}

	props := make([]Property, 0, len(newest))
	for key, entry := range newest {
		props = append(props, Property{Key: key, Value: entry.Value})
	}
	slices.SortFunc(props, func(a, b Property) int { return strings.Compare(a.Key, b.Key) })
	return props
}

// selectProperties keeps the properties named by keys, in element order. No keys selects all.
func selectProperties(props []Property, keys []string) []Property {
	if len(keys) == 0 {
		return props
	}
	selected := make([]Property, 0, len(keys))
	for _, p := range props {
		if slices.Contains(keys, p.Key) {
			selected = append(selected, p)
		}
	}
	return selected
}

func propertyKeys(props []Property) []string {
	keys := make([]string, len(props))
	for i, p := range props {
		keys[i] = p.Key
	}
	return keys
}

// wantsEnrichment reports whether any requested key could be served by enrichment.
func wantsEnrichment(keys []string, candidate func(string) bool) bool {
	if len(keys) == 0 {
		return true
	}
	return slices.ContainsFunc(keys, candidate)
}
