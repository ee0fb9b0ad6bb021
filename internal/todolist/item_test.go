package todolist

import (
	"strings"
	"testing"
)

func TestIsValidTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"normal", "Buy milk", true},
		{"empty", "", false},
		{"whitespace only", "   \t", false},
		{"max length", strings.Repeat("a", MaxTitleLength), true},
		{"too long", strings.Repeat("a", MaxTitleLength+1), false},
		{"multibyte at max length", strings.Repeat("あ", MaxTitleLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidTitle(tt.title); got != tt.want {
				t.Errorf("IsValidTitle(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestIsValidPriority(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if !IsValidPriority(p) {
			t.Errorf("IsValidPriority(%q) = false, want true", p)
		}
	}
	for _, p := range []Priority{"", "urgent", "HIGH"} {
		if IsValidPriority(p) {
			t.Errorf("IsValidPriority(%q) = true, want false", p)
		}
	}
}

func TestNewItem_TrimsTitleAndDefaultsPriority(t *testing.T) {
	it := NewItem(CreateInput{Title: "  Walk the dog  "}, t0)

	if it.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if it.Title != "Walk the dog" {
		t.Errorf("Title = %q, want %q", it.Title, "Walk the dog")
	}
	if it.Priority != PriorityMedium {
		t.Errorf("Priority = %q, want %q", it.Priority, PriorityMedium)
	}
	if it.Status != StatusActive {
		t.Errorf("Status = %q, want %q", it.Status, StatusActive)
	}
	if !it.CreatedAt.Equal(t0) || !it.UpdatedAt.Equal(t0) {
		t.Errorf("timestamps = %v / %v, want %v", it.CreatedAt, it.UpdatedAt, t0)
	}

	other := NewItem(CreateInput{Title: "Walk the dog"}, t0)
	if other.ID == it.ID {
		t.Error("expected distinct IDs")
	}
}

func TestSortByPriority_StableHighToLow(t *testing.T) {
	items := []Item{
		item("low-1", PriorityLow, StatusActive),
		item("high-1", PriorityHigh, StatusActive),
		item("med-1", PriorityMedium, StatusActive),
		item("high-2", PriorityHigh, StatusActive),
		item("low-2", PriorityLow, StatusActive),
	}

	got := SortByPriority(items)

	want := []string{"high-1", "high-2", "med-1", "low-1", "low-2"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d] = %q, want %q", i, got[i].ID, id)
		}
	}
	if items[0].ID != "low-1" {
		t.Error("SortByPriority must not reorder its input")
	}
}

func TestFilters(t *testing.T) {
	items := []Item{
		item("a", PriorityLow, StatusActive),
		item("b", PriorityHigh, StatusCompleted),
		item("c", PriorityHigh, StatusActive),
	}

	if got := Active(items); len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("Active = %+v", got)
	}
	if got := Completed(items); len(got) != 1 || got[0].ID != "b" {
		t.Errorf("Completed = %+v", got)
	}
	if got := FilterByPriority(items, PriorityHigh); len(got) != 2 {
		t.Errorf("FilterByPriority(high) = %+v", got)
	}
	if got := FilterByStatus(nil, StatusActive); len(got) != 0 {
		t.Errorf("FilterByStatus(nil) = %+v, want empty", got)
	}
}

func TestNotCompleted_KeepsUnknownStatus(t *testing.T) {
	items := []Item{
		item("a", PriorityLow, StatusActive),
		item("b", PriorityHigh, StatusCompleted),
		item("c", PriorityHigh, Status("archived")),
	}

	got := NotCompleted(items)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("NotCompleted = %+v, want a and c", got)
	}
	if got := NotCompleted([]Item{items[1]}); got != nil {
		t.Errorf("NotCompleted(all completed) = %+v, want nil", got)
	}
}
