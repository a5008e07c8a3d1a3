package event

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dshills/reactor/internal/event/topic"
)

func TestBind(t *testing.T) {
	types := NewTypes()

	if err := Bind[CustomerSelected](types, "CustomerSelected"); err != nil {
		t.Fatalf("Bind error = %v", err)
	}
	if err := Bind[CustomerSelected](types, "CustomerSelected"); err != nil {
		t.Errorf("idempotent Bind error = %v", err)
	}

	tests := []struct {
		name string
		bind func() error
		want error
	}{
		{"name rebound to another type", func() error { return Bind[OrderPlaced](types, "CustomerSelected") }, ErrDuplicateBinding},
		{"type bound to a second name", func() error { return Bind[CustomerSelected](types, "customer.selected") }, ErrDuplicateBinding},
		{"empty name", func() error { return Bind[OrderPlaced](types, "") }, topic.ErrInvalidTopic},
		{"wildcard name", func() error { return Bind[OrderPlaced](types, "sales.*") }, topic.ErrInvalidTopic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.bind(); !errors.Is(err, tt.want) {
				t.Errorf("Bind error = %v, want %v", err, tt.want)
			}
		})
	}

	if types.Len() != 1 {
		t.Errorf("Len() = %d, want 1", types.Len())
	}
}

func TestTypesLookup(t *testing.T) {
	types := testTypes(t)

	typ, ok := types.TypeForName("sales.order.placed")
	if !ok || typ != reflect.TypeFor[OrderPlaced]() {
		t.Errorf("TypeForName = %v, %v", typ, ok)
	}
	name, ok := types.NameForType(reflect.TypeFor[CustomerSelected]())
	if !ok || name != "CustomerSelected" {
		t.Errorf("NameForType = %q, %v", name, ok)
	}
	if _, ok := types.TypeForName("missing"); ok {
		t.Error("TypeForName(missing) reported a type")
	}
	if _, ok := types.NameForType(reflect.TypeFor[localOnly]()); ok {
		t.Error("NameForType(localOnly) reported a name")
	}
	if got := types.Names(); len(got) != 2 || got[0] != "CustomerSelected" {
		t.Errorf("Names() = %v", got)
	}
}

func TestMustBindPanics(t *testing.T) {
	types := NewTypes()
	MustBind[CustomerSelected](types, "CustomerSelected")

	defer func() {
		if recover() == nil {
			t.Error("MustBind did not panic on conflict")
		}
	}()
	MustBind[OrderPlaced](types, "CustomerSelected")
}

func TestBridgeDispatchError(t *testing.T) {
	cause := errors.New("bad json")
	err := &BridgeDispatchError{TypeName: "CustomerSelected", Payload: []byte("{"), Stage: StageDecode, Err: cause}

	if !errors.Is(err, ErrBridgeDispatch) {
		t.Error("errors.Is should match ErrBridgeDispatch")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should match the underlying error")
	}
	if got := err.Error(); got != "bridge dispatch decode failed for CustomerSelected: bad json" {
		t.Errorf("Error() = %q", got)
	}
}
