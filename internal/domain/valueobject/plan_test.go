package valueobject

import (
	"net/netip"
	"testing"

	"github.com/lite-lake/zonesync/internal/domain/entity"
)

func testRecord(name, addr string) entity.Record {
	return entity.Record{Name: name, Value: entity.AValue(netip.MustParseAddr(addr))}
}

func TestPlan_NewPlan(t *testing.T) {
	plan := NewPlan()

	if plan == nil {
		t.Fatal("expected non-nil plan")
	}
	if plan.Operations() == nil {
		t.Error("expected initialized operations slice")
	}
	if plan.HasChanges() {
		t.Error("expected empty plan to have no changes")
	}
}

func TestPlan_AddOperation(t *testing.T) {
	plan := NewPlan()
	plan.AddOperation(NewCreate(testRecord("www", "192.0.2.1")))

	if plan.Len() != 1 {
		t.Errorf("expected 1 operation, got %d", plan.Len())
	}
	if !plan.HasChanges() {
		t.Error("expected plan to have changes")
	}
}

func TestPlan_FilterByKind(t *testing.T) {
	node := entity.RecordNode{ID: "7", Record: testRecord("old", "192.0.2.9")}
	plan := NewPlan(
		NewCreate(testRecord("a", "192.0.2.1")),
		NewDelete(node),
		NewCreate(testRecord("b", "192.0.2.2")),
		NewPatch(node, testRecord("c", "192.0.2.3")),
	)

	if got := len(plan.FilterByKind(OperationCreate)); got != 2 {
		t.Errorf("expected 2 creates, got %d", got)
	}
	if got := len(plan.FilterByKind(OperationZoneUpdate)); got != 0 {
		t.Errorf("expected 0 zone updates, got %d", got)
	}

	counts := plan.CountByKind()
	if counts[OperationDelete] != 1 || counts[OperationPatch] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestPlan_Equals(t *testing.T) {
	a := NewPlan(NewCreate(testRecord("a", "192.0.2.1")))
	b := NewPlan(NewCreate(testRecord("a", "192.0.2.1")))
	c := NewPlan(NewCreate(testRecord("a", "192.0.2.2")))

	if !a.Equals(b) {
		t.Error("expected equal plans")
	}
	if a.Equals(c) {
		t.Error("expected different plans")
	}
	if a.Equals(nil) {
		t.Error("expected plan not equal to nil")
	}
}

func TestOperation_String(t *testing.T) {
	node := entity.RecordNode{ID: "42", Record: testRecord("www", "192.0.2.1")}

	tests := []struct {
		name string
		op   *Operation
		want string
	}{
		{
			name: "zone",
			op:   NewZoneUpdate(entity.ZoneValue{IPv4: netip.MustParseAddr("198.51.100.7")}),
			want: "Zone <ipv4=198.51.100.7 ipv6prefix=->",
		},
		{
			name: "create",
			op:   NewCreate(testRecord("www", "192.0.2.1")),
			want: "Create Record <www A 192.0.2.1>",
		},
		{
			name: "delete",
			op:   NewDelete(node),
			want: "Delete Record [42]",
		},
		{
			name: "patch apex",
			op:   NewPatch(node, entity.Record{Name: "", Value: entity.TXTValue("v=spf1")}),
			want: `Patch Record [42] => <@ TXT "v=spf1">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
