package topic

import (
	"fmt"
	"sync"
	"testing"
)

func TestMatcher_AddAndMatch(t *testing.T) {
	m := NewMatcher[string]()
	m.Add("sales.*", "a", "wild")
	m.Add("sales.opened", "b", "exact")
	m.Add("**", "c", "all")
	m.Add("invoice.*", "d", "other")

	got := m.Match("sales.opened")
	want := []string{"wild", "exact", "all"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Match() = %v, want %v", got, want)
	}

	if got := m.Match("invoice.paid"); fmt.Sprint(got) != "[all other]" {
		t.Errorf("Match(invoice.paid) = %v", got)
	}
	if got := m.Match(""); got != nil {
		t.Errorf("Match(\"\") = %v, want nil", got)
	}
}

func TestMatcher_MultiWildcardNoDuplicates(t *testing.T) {
	m := NewMatcher[int]()
	m.Add("**.created", "a", 1)
	m.Add("sales.**", "b", 2)

	got := m.Match("sales.order.created")
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Match() = %v, want [1 2]", got)
	}
	if got := m.Match("sales"); len(got) != 1 || got[0] != 2 {
		t.Errorf("Match(sales) = %v, want [2]", got)
	}
}

func TestMatcher_Remove(t *testing.T) {
	m := NewMatcher[int]()
	m.Add("sales.*", "a", 1)
	m.Add("sales.*", "b", 2)

	if !m.Remove("a") {
		t.Fatal("Remove(a) = false")
	}
	if m.Remove("a") {
		t.Error("second Remove(a) = true")
	}
	if m.Has("a") || !m.Has("b") {
		t.Error("Has() reports wrong membership after Remove")
	}
	if got := m.Match("sales.opened"); len(got) != 1 || got[0] != 2 {
		t.Errorf("Match() = %v, want [2]", got)
	}
}

func TestMatcher_AddReplacesID(t *testing.T) {
	m := NewMatcher[int]()
	m.Add("sales.*", "a", 1)
	m.Add("invoice.*", "a", 2)

	if got := m.Match("sales.opened"); len(got) != 0 {
		t.Errorf("old pattern still matches: %v", got)
	}
	if got := m.Match("invoice.paid"); len(got) != 1 || got[0] != 2 {
		t.Errorf("Match() = %v, want [2]", got)
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestMatcher_PatternsAndClear(t *testing.T) {
	m := NewMatcher[int]()
	m.Add("b.*", "1", 1)
	m.Add("a.*", "2", 2)
	m.Add("a.*", "3", 3)

	if got := m.Patterns(); fmt.Sprint(got) != "[a.* b.*]" {
		t.Errorf("Patterns() = %v", got)
	}

	m.Clear()
	if m.Count() != 0 || len(m.Match("a.x")) != 0 {
		t.Error("Clear() left entries behind")
	}
}

func TestMatcher_Concurrent(t *testing.T) {
	m := NewMatcher[int]()
	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprint(i)
			m.Add("sales.*", id, i)
			_ = m.Match("sales.opened")
			if i%2 == 0 {
				m.Remove(id)
			}
		}()
	}
	wg.Wait()

	if got := m.Count(); got != 10 {
		t.Errorf("Count() = %d, want 10", got)
	}
}
