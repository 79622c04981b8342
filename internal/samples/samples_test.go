package samples

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tbgui/tbgui/internal/events"
)

func TestDiscover(t *testing.T) {
	tests := []struct {
		name    string
		listing []string
		want    []string
	}{
		{
			name:    "paired reads collapse to one sample",
			listing: []string{"S1_R1.fastq.gz", "S1_R2.fastq.gz", "S2_R1.fastq.gz", "S2_R2.fastq.gz", "README", "S3_x"},
			want:    []string{"S1", "S2", "S3"},
		},
		{
			name:    "first occurrence order",
			listing: []string{"B_1", "A_1", "B_2"},
			want:    []string{"B", "A"},
		},
		{
			name:    "split at first separator only",
			listing: []string{"ERR_123_R1.fq"},
			want:    []string{"ERR"},
		},
		{
			name:    "empty prefix is kept",
			listing: []string{"_orphan"},
			want:    []string{""},
		},
		{
			name:    "no separators",
			listing: []string{"README", "notes.txt"},
			want:    []string{},
		},
		{
			name:    "empty listing",
			listing: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Discover(tt.listing)
			if names := Names(got); !reflect.DeepEqual(names, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, names)
			}
			for _, s := range got {
				if s.Checked {
					t.Errorf("sample %q should start unchecked", s.Name)
				}
				if s.ID == uuid.Nil {
					t.Errorf("sample %q has nil id", s.Name)
				}
			}
		})
	}
}

func TestDiscover_Idempotent(t *testing.T) {
	listing := []string{"S1_R1.fastq.gz", "S1_R2.fastq.gz", "S2_R1.fastq.gz"}

	first := Discover(listing)
	second := Discover(listing)

	if !reflect.DeepEqual(Names(first), Names(second)) {
		t.Fatalf("names differ between passes: %q vs %q", Names(first), Names(second))
	}
	for i := range first {
		if first[i].ID == second[i].ID {
			t.Errorf("expected fresh id for %q on second pass", first[i].Name)
		}
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		input   string
		want    Filter
		wantErr bool
	}{
		{"", FilterAll, false},
		{"all", FilterAll, false},
		{"Checked", FilterChecked, false},
		{" unchecked ", FilterUnchecked, false},
		{"some", FilterAll, true},
	}

	for _, tt := range tests {
		got, err := ParseFilter(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFilter(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilter(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestList_Selection(t *testing.T) {
	list := NewList(nil)
	list.Set(Discover([]string{"S1_R1", "S2_R1", "S3_R1"}))

	items := list.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if list.CheckedCount() != 0 {
		t.Errorf("expected 0 checked, got %d", list.CheckedCount())
	}

	if !list.Toggle(items[0].ID) {
		t.Fatal("Toggle returned false for existing id")
	}
	list.SetChecked(items[2].ID, true)

	if got := list.CheckedNames(); !reflect.DeepEqual(got, []string{"S1", "S3"}) {
		t.Errorf("expected [S1 S3], got %q", got)
	}

	list.Toggle(items[0].ID)
	if list.CheckedCount() != 1 {
		t.Errorf("expected 1 checked after second toggle, got %d", list.CheckedCount())
	}

	if list.Toggle(uuid.New()) {
		t.Error("Toggle should return false for unknown id")
	}

	list.CheckAll(true)
	if list.CheckedCount() != 3 {
		t.Errorf("expected 3 checked, got %d", list.CheckedCount())
	}
	list.CheckAll(false)
	if list.CheckedCount() != 0 {
		t.Errorf("expected 0 checked, got %d", list.CheckedCount())
	}
}

func TestList_CheckByName(t *testing.T) {
	list := NewList(nil)
	list.Set(Discover([]string{"S1_R1", "S2_R1"}))

	missing := list.CheckByName("S2", "S9")

	if !reflect.DeepEqual(missing, []string{"S9"}) {
		t.Errorf("expected missing [S9], got %q", missing)
	}
	if got := list.CheckedNames(); !reflect.DeepEqual(got, []string{"S2"}) {
		t.Errorf("expected [S2] checked, got %q", got)
	}
}

func TestList_Filtered(t *testing.T) {
	list := NewList(nil)
	list.Set(Discover([]string{"A_1", "B_1", "C_1"}))
	list.CheckByName("B")

	tests := []struct {
		filter Filter
		want   []string
	}{
		{FilterAll, []string{"A", "B", "C"}},
		{FilterChecked, []string{"B"}},
		{FilterUnchecked, []string{"A", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.filter.String(), func(t *testing.T) {
			if got := Names(list.Filtered(tt.filter)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestList_SetClearsSelection(t *testing.T) {
	list := NewList(nil)
	list.Set(Discover([]string{"S1_R1"}))
	list.CheckAll(true)

	list.Set(Discover([]string{"S1_R1", "S2_R1"}))

	if list.CheckedCount() != 0 {
		t.Errorf("expected refresh to reset selection, got %d checked", list.CheckedCount())
	}
}

func TestList_ItemsIsCopy(t *testing.T) {
	list := NewList(nil)
	list.Set(Discover([]string{"S1_R1"}))

	items := list.Items()
	items[0].Checked = true

	if list.CheckedCount() != 0 {
		t.Error("mutating Items() result should not affect the list")
	}
}

func TestList_PublishesChanges(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventSamplesChanged)

	list := NewList(bus)
	list.Set(Discover([]string{"S1_R1", "S2_R1"}))
	list.CheckByName("S1")

	var last *events.SamplesChangedEvent
	for i := 0; i < 2; i++ {
		select {
		case e := <-ch:
			last = e.(*events.SamplesChangedEvent)
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timeout waiting for event %d", i+1)
		}
	}
	if last.Total != 2 || last.Checked != 1 {
		t.Errorf("expected total 2 checked 1, got %d/%d", last.Total, last.Checked)
	}
}
