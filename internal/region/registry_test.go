package region

import (
	"errors"
	"sync"
	"testing"
)

func TestRegistryReplaysPendingViewsInOrder(t *testing.T) {
	reg := NewRegistry()
	RegisterView[customerList](reg, "Sales")
	reg.RegisterViewForRegion(TypeOf[customerDetail](), "SALES")
	RegisterView[orderView](reg, "orders")

	host := &recordingHost{}
	r, err := reg.AssociateRegion(host, "sales")
	if err != nil {
		t.Fatalf("AssociateRegion error = %v", err)
	}
	if r.Name() != "sales" {
		t.Errorf("Name() = %q, want %q", r.Name(), "sales")
	}

	calls := host.Calls()
	if len(calls) != 2 {
		t.Fatalf("host calls = %d, want 2", len(calls))
	}
	if calls[0].Type != TypeOf[customerList]() || calls[1].Type != TypeOf[customerDetail]() {
		t.Errorf("replay order = [%v %v], want [customerList customerDetail]", calls[0].Type, calls[1].Type)
	}
}

func TestRegistryRegisterIsFluent(t *testing.T) {
	reg := NewRegistry()
	got := reg.RegisterViewForRegion(TypeOf[customerList](), "a").
		RegisterViewForRegion(TypeOf[customerDetail](), "a")
	if got != reg {
		t.Error("RegisterViewForRegion did not return the registry")
	}
	if n := len(reg.PendingViews("A")); n != 2 {
		t.Errorf("PendingViews = %d, want 2", n)
	}
}

func TestRegistryDuplicateAssociation(t *testing.T) {
	reg := NewRegistry()
	first := &recordingHost{}
	if _, err := reg.AssociateRegion(first, "main"); err != nil {
		t.Fatalf("first AssociateRegion error = %v", err)
	}

	second := &recordingHost{}
	_, err := reg.AssociateRegion(second, "MAIN")
	if !errors.Is(err, ErrDuplicateRegion) {
		t.Fatalf("second AssociateRegion error = %v, want ErrDuplicateRegion", err)
	}
	var dup *DuplicateRegionError
	if !errors.As(err, &dup) || dup.Name != "main" {
		t.Errorf("error = %#v, want DuplicateRegionError{main}", err)
	}

	_, err = reg.AssociateListRegion(&recordingListHost{}, "main")
	if !errors.Is(err, ErrDuplicateRegion) {
		t.Errorf("list association error = %v, want ErrDuplicateRegion", err)
	}

	r, err := reg.Region("main")
	if err != nil {
		t.Fatalf("Region error = %v", err)
	}
	r.Add(TypeOf[customerList]())
	if len(first.Calls()) != 1 || len(second.Calls()) != 0 {
		t.Errorf("original association replaced: first=%d second=%d", len(first.Calls()), len(second.Calls()))
	}
}

func TestRegistryUnknownRegion(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.Region("nope"); !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("Region error = %v, want ErrUnknownRegion", err)
	}
	if err := reg.RemoveRegion("nope"); !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("RemoveRegion error = %v, want ErrUnknownRegion", err)
	}
}

func TestRegistryRemoveRegion(t *testing.T) {
	reg := NewRegistry()
	RegisterView[customerList](reg, "main")

	host := &recordingHost{}
	if _, err := reg.AssociateRegion(host, "main"); err != nil {
		t.Fatalf("AssociateRegion error = %v", err)
	}
	if err := reg.RemoveRegion("Main"); err != nil {
		t.Fatalf("RemoveRegion error = %v", err)
	}

	calls := host.Calls()
	if len(calls) != 2 || calls[1] != nil {
		t.Fatalf("host calls = %v, want add then clear", calls)
	}
	if _, err := reg.Region("main"); !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("Region after remove error = %v, want ErrUnknownRegion", err)
	}

	again := &recordingHost{}
	if _, err := reg.AssociateRegion(again, "main"); err != nil {
		t.Fatalf("re-association error = %v", err)
	}
	if len(again.Calls()) != 1 {
		t.Errorf("pending views replayed %d times on re-association, want 1", len(again.Calls()))
	}
}

func TestRegistryStaleTokenAfterReassociation(t *testing.T) {
	reg := NewRegistry()

	for _, tt := range []struct {
		name      string
		associate func(t *testing.T, name string) (Region, func() int)
	}{
		{
			name: "content",
			associate: func(t *testing.T, name string) (Region, func() int) {
				host := &recordingHost{}
				r, err := reg.AssociateRegion(host, name)
				if err != nil {
					t.Fatalf("AssociateRegion error = %v", err)
				}
				return r, func() int { return len(host.Calls()) }
			},
		},
		{
			name: "list",
			associate: func(t *testing.T, name string) (Region, func() int) {
				host := &recordingListHost{}
				r, err := reg.AssociateListRegion(host, name)
				if err != nil {
					t.Fatalf("AssociateListRegion error = %v", err)
				}
				return r, func() int { return len(host.removed) + host.cleared }
			},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			old, _ := tt.associate(t, tt.name)
			stale := old.Add(TypeOf[customerList]())
			if err := reg.RemoveRegion(tt.name); err != nil {
				t.Fatalf("RemoveRegion error = %v", err)
			}

			fresh, calls := tt.associate(t, tt.name)
			current := fresh.Add(TypeOf[customerDetail]())
			if current.ID() != stale.ID() {
				t.Fatalf("ids = %d and %d, want the counter to restart", stale.ID(), current.ID())
			}
			if current == stale {
				t.Fatal("token from the removed region equals the new region's token")
			}

			before := calls()
			fresh.Remove(stale)
			if calls() != before {
				t.Error("stale token removed content from the re-associated region")
			}
			fresh.Remove(current)
			if calls() == before {
				t.Error("current token did not remove content")
			}
		})
	}
}

func TestRegistryListRegion(t *testing.T) {
	reg := NewRegistry()
	RegisterView[orderView](reg, "orders")
	RegisterView[orderView](reg, "orders")

	host := &recordingListHost{}
	if _, err := reg.AssociateListRegion(host, "Orders"); err != nil {
		t.Fatalf("AssociateListRegion error = %v", err)
	}
	if len(host.items) != 2 {
		t.Errorf("list items = %d, want 2", len(host.items))
	}
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry()
	for _, n := range []string{"b", "A", "c"} {
		if _, err := reg.AssociateRegion(&recordingHost{}, n); err != nil {
			t.Fatalf("AssociateRegion(%q) error = %v", n, err)
		}
	}
	got := reg.Names()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistryConcurrentAssociation(t *testing.T) {
	reg := NewRegistry()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.AssociateRegion(&recordingHost{}, "shared")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, ErrDuplicateRegion):
			t.Errorf("unexpected error = %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful associations = %d, want 1", ok)
	}
}
