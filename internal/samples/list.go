package samples

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tbgui/tbgui/internal/events"
)

// Filter selects which samples a view shows.
type Filter int

const (
	FilterAll Filter = iota
	FilterUnchecked
	FilterChecked
)

func (f Filter) String() string {
	switch f {
	case FilterUnchecked:
		return "unchecked"
	case FilterChecked:
		return "checked"
	default:
		return "all"
	}
}

// Matches reports whether s passes the filter.
func (f Filter) Matches(s Sample) bool {
	switch f {
	case FilterUnchecked:
		return !s.Checked
	case FilterChecked:
		return s.Checked
	default:
		return true
	}
}

// ParseFilter parses "all", "unchecked" or "checked" (case-insensitive).
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "unchecked":
		return FilterUnchecked, nil
	case "checked":
		return FilterChecked, nil
	}
	return FilterAll, fmt.Errorf("unknown filter %q (want all, unchecked or checked)", s)
}

// List is an observable sample list.
// It publishes EventSamplesChanged on every change. Thread-safe.
type List struct {
	eventBus *events.EventBus

	items []Sample
	mu    sync.RWMutex
}

// NewList creates an empty List. bus may be nil.
func NewList(bus *events.EventBus) *List {
	return &List{
		eventBus: bus,
		items:    make([]Sample, 0),
	}
}

// Set replaces the list contents, dropping any previous selection.
func (l *List) Set(items []Sample) {
	l.mu.Lock()
	l.items = make([]Sample, len(items))
	copy(l.items, items)
	l.mu.Unlock()

	l.publish()
}

// Items returns a copy of the current samples.
func (l *List) Items() []Sample {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Sample, len(l.items))
	copy(result, l.items)
	return result
}

// Len returns the number of samples.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Toggle flips the checked state of the sample with id.
// Returns false if no such sample exists.
func (l *List) Toggle(id uuid.UUID) bool {
	l.mu.Lock()
	i := l.indexLocked(id)
	if i >= 0 {
		l.items[i].Checked = !l.items[i].Checked
	}
	l.mu.Unlock()

	if i < 0 {
		return false
	}
	l.publish()
	return true
}

// SetChecked sets the checked state of the sample with id.
func (l *List) SetChecked(id uuid.UUID, checked bool) bool {
	l.mu.Lock()
	i := l.indexLocked(id)
	if i >= 0 {
		l.items[i].Checked = checked
	}
	l.mu.Unlock()

	if i < 0 {
		return false
	}
	l.publish()
	return true
}

// CheckByName checks the samples with the given names and returns the names
// that were not found.
func (l *List) CheckByName(names ...string) (missing []string) {
	l.mu.Lock()
	for _, name := range names {
		found := false
		for i := range l.items {
			if l.items[i].Name == name {
				l.items[i].Checked = true
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, name)
		}
	}
	l.mu.Unlock()

	l.publish()
	return missing
}

// CheckAll sets every sample to checked.
func (l *List) CheckAll(checked bool) {
	l.mu.Lock()
	for i := range l.items {
		l.items[i].Checked = checked
	}
	l.mu.Unlock()

	l.publish()
}

// Checked returns the checked samples in list order.
func (l *List) Checked() []Sample {
	return l.Filtered(FilterChecked)
}

// CheckedNames returns the names of checked samples in list order.
func (l *List) CheckedNames() []string {
	return Names(l.Checked())
}

// CheckedCount returns the number of checked samples.
func (l *List) CheckedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.checkedCountLocked()
}

// Filtered returns the samples matching f in list order.
func (l *List) Filtered(f Filter) []Sample {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Sample, 0, len(l.items))
	for _, s := range l.items {
		if f.Matches(s) {
			result = append(result, s)
		}
	}
	return result
}

// FindByName finds a sample by name.
func (l *List) FindByName(name string) (Sample, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, s := range l.items {
		if s.Name == name {
			return s, true
		}
	}
	return Sample{}, false
}

func (l *List) indexLocked(id uuid.UUID) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *List) checkedCountLocked() int {
	n := 0
	for _, s := range l.items {
		if s.Checked {
			n++
		}
	}
	return n
}

func (l *List) publish() {
	if l.eventBus == nil {
		return
	}
	l.mu.RLock()
	total, checked := len(l.items), l.checkedCountLocked()
	l.mu.RUnlock()
	l.eventBus.PublishSamplesChanged(total, checked)
}
