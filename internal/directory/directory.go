// Package directory holds the in-memory subscriber directory: the single
// source of truth for who is subscribed to which tags. It is mutated only
// when a verification link validates, and read by persistence and by the
// signup path's tag bookkeeping.
package directory

import (
	"sort"
	"sync"
)

// Entry is one subscriber's state. An Entry never exists with an empty
// tag set; emptiness triggers removal instead of storage.
type Entry struct {
	Name string
	Tags map[string]struct{}
}

// HasTag reports whether the entry is subscribed to tag.
func (e Entry) HasTag(tag string) bool {
	_, ok := e.Tags[tag]
	return ok
}

// SortedTags returns the entry's tags in lexicographic order.
func (e Entry) SortedTags() []string {
	tags := make([]string, 0, len(e.Tags))
	for tag := range e.Tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Directory maps email addresses to subscription entries. Emails are used
// as given; no case normalization. Safe for concurrent use.
type Directory struct {
	mu        sync.RWMutex
	entries   map[string]Entry
	knownTags map[string]struct{}
}

// New creates an empty Directory.
func New() *Directory {
	return &Directory{
		entries:   make(map[string]Entry),
		knownTags: make(map[string]struct{}),
	}
}

// Upsert replaces the entry for email with the given name and tag set. A
// verification carries the subscriber's complete preference set, so this
// is a full replace, never a merge. An empty tag list removes the entry.
func (d *Directory) Upsert(email, name string, tags []string) {
	if len(tags) == 0 {
		d.Remove(email)
		return
	}
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[email] = Entry{Name: name, Tags: set}
	for tag := range set {
		d.knownTags[tag] = struct{}{}
	}
}

// Merge unions tags into an existing entry, creating it if absent. Used by
// the additive-merge load path; existing tags are never removed.
func (d *Directory) Merge(email, name string, tags []string) {
	if email == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.entries[email]
	if !ok {
		entry = Entry{Name: name, Tags: make(map[string]struct{}, len(tags))}
	}
	for _, tag := range tags {
		entry.Tags[tag] = struct{}{}
		d.knownTags[tag] = struct{}{}
	}
	if len(entry.Tags) == 0 {
		return
	}
	d.entries[email] = entry
}

// Remove deletes the entry for email, if any.
func (d *Directory) Remove(email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, email)
}

// Get returns the entry for email.
func (d *Directory) Get(email string) (Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.entries[email]
	return entry, ok
}

// Len returns the number of subscribers.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Snapshot returns a deep copy of all entries, safe to iterate while the
// directory keeps changing.
func (d *Directory) Snapshot() map[string]Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]Entry, len(d.entries))
	for email, entry := range d.entries {
		tags := make(map[string]struct{}, len(entry.Tags))
		for tag := range entry.Tags {
			tags[tag] = struct{}{}
		}
		out[email] = Entry{Name: entry.Name, Tags: tags}
	}
	return out
}

// AllTags returns the sorted union of tags across all current entries.
// It is recomputed from the entries, not from the observed-tag set, so
// the persisted column set always reflects actual membership.
func (d *Directory) AllTags() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	set := make(map[string]struct{})
	for _, entry := range d.entries {
		for tag := range entry.Tags {
			set[tag] = struct{}{}
		}
	}
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ObserveTags records tags into the known-tag set. Display bookkeeping
// only; it never affects membership.
func (d *Directory) ObserveTags(tags ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, tag := range tags {
		if tag != "" {
			d.knownTags[tag] = struct{}{}
		}
	}
}

// KnownTags returns the sorted set of all tags ever observed.
func (d *Directory) KnownTags() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tags := make([]string, 0, len(d.knownTags))
	for tag := range d.knownTags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
