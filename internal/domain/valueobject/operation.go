package valueobject

import (
	"fmt"

	"github.com/lite-lake/zonesync/internal/domain/entity"
)

type OperationKind int

const (
	OperationZoneUpdate OperationKind = iota
	OperationCreate
	OperationDelete
	OperationPatch
)

func (k OperationKind) String() string {
	switch k {
	case OperationZoneUpdate:
		return "ZONE"
	case OperationCreate:
		return "CREATE"
	case OperationDelete:
		return "DELETE"
	case OperationPatch:
		return "PATCH"
	default:
		return "UNKNOWN"
	}
}

// Operation is one corrective action against the provider. It is immutable
// once built.
type Operation struct {
	kind   OperationKind
	zone   entity.ZoneValue
	target entity.RecordNode
	record entity.Record
}

func NewZoneUpdate(zone entity.ZoneValue) *Operation {
	return &Operation{kind: OperationZoneUpdate, zone: zone}
}

func NewCreate(record entity.Record) *Operation {
	return &Operation{kind: OperationCreate, record: record}
}

func NewDelete(target entity.RecordNode) *Operation {
	return &Operation{kind: OperationDelete, target: target}
}

func NewPatch(target entity.RecordNode, record entity.Record) *Operation {
	return &Operation{kind: OperationPatch, target: target, record: record}
}

func (o *Operation) Kind() OperationKind       { return o.kind }
func (o *Operation) Zone() entity.ZoneValue    { return o.zone }
func (o *Operation) Target() entity.RecordNode { return o.target }
func (o *Operation) Record() entity.Record     { return o.record }

func (o *Operation) String() string {
	switch o.kind {
	case OperationZoneUpdate:
		return fmt.Sprintf("Zone <%s>", o.zone)
	case OperationCreate:
		return fmt.Sprintf("Create Record <%s>", o.record)
	case OperationDelete:
		return fmt.Sprintf("Delete Record [%s]", o.target.ID)
	case OperationPatch:
		return fmt.Sprintf("Patch Record [%s] => <%s>", o.target.ID, o.record)
	default:
		return "Unknown"
	}
}

func (o *Operation) Equals(other *Operation) bool {
	if other == nil {
		return false
	}
	return *o == *other
}
