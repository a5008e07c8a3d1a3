package navigation

import (
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/dshills/reactor/internal/region"
)

type Customer struct{}
type Invoice struct{}

// spyHost records content placed into a region.
type spyHost struct {
	mu       sync.Mutex
	contents []*region.Content
}

func (h *spyHost) SetContent(c *region.Content) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.contents = append(h.contents, c)
}

func (h *spyHost) last() *region.Content {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.contents) == 0 {
		return nil
	}
	return h.contents[len(h.contents)-1]
}

func newTestRouter(t *testing.T, opts ...Option) (*Router, *spyHost) {
	t.Helper()

	reg := region.NewRegistry()
	host := &spyHost{}
	if _, err := reg.AssociateRegion(host, "sales"); err != nil {
		t.Fatalf("AssociateRegion error = %v", err)
	}
	return NewRouter(reg, opts...), host
}

func TestRegisterName(t *testing.T) {
	r, _ := newTestRouter(t)

	if err := r.RegisterName(region.TypeOf[Customer](), "/Customer"); err != nil {
		t.Fatalf("RegisterName error = %v", err)
	}
	if err := r.RegisterName(region.TypeOf[Customer](), "/Customer"); err != nil {
		t.Errorf("idempotent RegisterName error = %v", err)
	}

	err := r.RegisterName(region.TypeOf[Invoice](), "/Customer")
	if !errors.Is(err, ErrNameConflict) {
		t.Fatalf("conflicting RegisterName error = %v, want ErrNameConflict", err)
	}
	var conflict *NameConflictError
	if !errors.As(err, &conflict) || conflict.Existing != region.TypeOf[Customer]() {
		t.Errorf("conflict = %#v, want existing Customer", err)
	}

	if ct, ok := r.Resolve("/Customer"); !ok || ct != region.TypeOf[Customer]() {
		t.Errorf("Resolve after conflict = %v, %v; want Customer", ct, ok)
	}
}

func TestRegisterNameRequiresSeparator(t *testing.T) {
	r, _ := newTestRouter(t)

	err := r.RegisterName(region.TypeOf[Customer](), "Customer")
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("RegisterName error = %v, want ErrInvalidName", err)
	}
	if _, ok := r.Resolve("Customer"); ok {
		t.Error("invalid name was registered")
	}
}

func TestRegisterDefaultName(t *testing.T) {
	r, _ := newTestRouter(t)

	if err := Register[Customer](r); err != nil {
		t.Fatalf("Register error = %v", err)
	}
	if err := Register[Customer](r); err != nil {
		t.Errorf("second Register error = %v", err)
	}
	if _, ok := r.Resolve("/Customer"); !ok {
		t.Error("default name /Customer not registered")
	}
	if got := r.Names(); len(got) != 1 || got[0] != "/Customer" {
		t.Errorf("Names() = %v, want [/Customer]", got)
	}
}

func TestNavigate(t *testing.T) {
	r, host := newTestRouter(t)
	if err := Register[Customer](r); err != nil {
		t.Fatalf("Register error = %v", err)
	}

	tok, err := r.Navigate("app://sales/Customer")
	if err != nil {
		t.Fatalf("Navigate error = %v", err)
	}
	if tok.Region() != "sales" || tok.ID() != 1 {
		t.Errorf("token = %v, want sales#1", tok)
	}

	c := host.last()
	if c == nil || c.Type != region.TypeOf[Customer]() {
		t.Fatalf("host content = %v, want Customer", c)
	}
	if len(c.Params) != 0 {
		t.Errorf("params = %v, want none", c.Params)
	}
}

func TestNavigateErrors(t *testing.T) {
	r, _ := newTestRouter(t)
	if err := Register[Customer](r); err != nil {
		t.Fatalf("Register error = %v", err)
	}

	tests := []struct {
		name    string
		locator string
		want    error
	}{
		{"unregistered name", "app://sales/Invoice", ErrUnresolvedName},
		{"http scheme", "http://sales/Customer", ErrUnsupportedScheme},
		{"missing scheme", "/Customer", ErrUnsupportedScheme},
		{"unknown region", "app://billing/Customer", region.ErrUnknownRegion},
		{"missing region", "app:/Customer", ErrInvalidLocator},
		{"unparseable", "app://sales/%zz", ErrInvalidLocator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Navigate(tt.locator)
			if !errors.Is(err, tt.want) {
				t.Errorf("Navigate(%q) error = %v, want %v", tt.locator, err, tt.want)
			}
		})
	}
}

func TestNavigateToPassesParameters(t *testing.T) {
	r, host := newTestRouter(t)
	if err := Register[Customer](r); err != nil {
		t.Fatalf("Register error = %v", err)
	}

	for _, name := range []string{"Customer", "/Customer"} {
		if _, err := r.NavigateTo("Sales", name, region.Param("id", 42)); err != nil {
			t.Fatalf("NavigateTo(%q) error = %v", name, err)
		}
		if v, ok := host.last().Param("id"); !ok || v != 42 {
			t.Errorf("Param(id) = %v, %v; want 42", v, ok)
		}
	}
}

func TestNavigateURLAndCustomScheme(t *testing.T) {
	r, _ := newTestRouter(t, WithScheme("shell"))
	if err := RegisterAs[Invoice](r, "/inv"); err != nil {
		t.Fatalf("RegisterAs error = %v", err)
	}

	u, _ := url.Parse("shell://sales/inv")
	if _, err := r.NavigateURL(u); err != nil {
		t.Errorf("NavigateURL error = %v", err)
	}
	if _, err := r.Navigate("app://sales/inv"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("app scheme error = %v, want ErrUnsupportedScheme", err)
	}
	if got := r.Locator("sales", "/inv"); got != "shell://sales/inv" {
		t.Errorf("Locator = %q", got)
	}
}

func TestObserve(t *testing.T) {
	r, _ := newTestRouter(t)
	if err := Register[Customer](r); err != nil {
		t.Fatalf("Register error = %v", err)
	}

	var seen []Navigation
	r.Observe(func(n Navigation) { seen = append(seen, n) })

	if _, err := r.Navigate("app://sales/Customer"); err != nil {
		t.Fatalf("Navigate error = %v", err)
	}
	_, _ = r.Navigate("app://sales/Missing")

	if len(seen) != 1 {
		t.Fatalf("observed %d navigations, want 1", len(seen))
	}
	if seen[0].Region != "sales" || seen[0].Name != "/Customer" {
		t.Errorf("observed = %+v", seen[0])
	}
}
