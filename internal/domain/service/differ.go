package service

import (
	"github.com/lite-lake/zonesync/internal/domain/entity"
	"github.com/lite-lake/zonesync/internal/domain/valueobject"
)

// PatchPolicy controls whether a desired record may take over an actual
// record that only shares its type.
type PatchPolicy string

const (
	// PatchAny reuses the first unclaimed actual record of the same type.
	PatchAny PatchPolicy = entity.PatchPolicyAny
	// PatchUnambiguous reuses a same-type record only when it is the single
	// unclaimed actual record of that type and the desired record is the
	// single unclaimed desired record of that type.
	PatchUnambiguous PatchPolicy = entity.PatchPolicyUnambiguous
	// PatchNone never matches on type alone.
	PatchNone PatchPolicy = entity.PatchPolicyNone
)

type differ struct {
	actual  []entity.RecordNode
	desired []entity.Record
	claimed []bool
	done    []bool
	ops     []*valueobject.Operation
}

// Diff computes the operations that turn actual into desired. Matching runs
// in strict priority order, each tier only seeing what earlier tiers left
// unclaimed:
//
//  1. exact (name, type and value) matches need no operation;
//  2. same name and type become a Patch of that record;
//  3. same type only becomes a Patch, subject to policy;
//  4. unmatched desired records are created, unmatched actual ones deleted.
//
// Within a tier the first unclaimed actual record in list order wins.
// The result lists patches first, then creates, then deletes.
func Diff(actual []entity.RecordNode, desired []entity.Record, policy PatchPolicy) []*valueobject.Operation {
	d := &differ{
		actual:  actual,
		desired: desired,
		claimed: make([]bool, len(actual)),
		done:    make([]bool, len(desired)),
	}

	d.match(func(a entity.Record, w entity.Record) bool { return a == w }, false)
	d.match(func(a entity.Record, w entity.Record) bool {
		return a.Name == w.Name && a.Type() == w.Type()
	}, true)

	switch policy {
	case PatchNone:
	case PatchUnambiguous:
		d.matchUnambiguousType()
	default:
		d.match(func(a entity.Record, w entity.Record) bool { return a.Type() == w.Type() }, true)
	}

	for i, w := range d.desired {
		if !d.done[i] {
			d.ops = append(d.ops, valueobject.NewCreate(w))
		}
	}
	for j, a := range d.actual {
		if !d.claimed[j] {
			d.ops = append(d.ops, valueobject.NewDelete(a))
		}
	}
	return d.ops
}

func (d *differ) match(eq func(actual, desired entity.Record) bool, patch bool) {
	for i, w := range d.desired {
		if d.done[i] {
			continue
		}
		for j, a := range d.actual {
			if d.claimed[j] || !eq(a.Record, w) {
				continue
			}
			d.claimed[j] = true
			d.done[i] = true
			if patch {
				d.ops = append(d.ops, valueobject.NewPatch(a, w))
			}
			break
		}
	}
}

func (d *differ) matchUnambiguousType() {
	desiredByType := make(map[entity.DNSRecordType][]int)
	for i, w := range d.desired {
		if !d.done[i] {
			desiredByType[w.Type()] = append(desiredByType[w.Type()], i)
		}
	}
	actualByType := make(map[entity.DNSRecordType][]int)
	for j, a := range d.actual {
		if !d.claimed[j] {
			actualByType[a.Record.Type()] = append(actualByType[a.Record.Type()], j)
		}
	}

	for i, w := range d.desired {
		if d.done[i] {
			continue
		}
		ws, as := desiredByType[w.Type()], actualByType[w.Type()]
		if len(ws) != 1 || len(as) != 1 {
			continue
		}
		j := as[0]
		d.claimed[j] = true
		d.done[i] = true
		d.ops = append(d.ops, valueobject.NewPatch(d.actual[j], w))
	}
}

// PlanRound diffs records and appends a zone update when a desired zone is
// given and differs from the actual one.
func PlanRound(actualZone entity.ZoneValue, actual []entity.RecordNode, desiredZone *entity.ZoneValue, desired []entity.Record, policy PatchPolicy) *valueobject.Plan {
	plan := valueobject.NewPlan(Diff(actual, desired, policy)...)
	if desiredZone != nil && *desiredZone != actualZone {
		plan.AddOperation(valueobject.NewZoneUpdate(*desiredZone))
	}
	return plan
}

// CloneRecords returns a fresh copy of desired for one round.
func CloneRecords(records []entity.Record) []entity.Record {
	out := make([]entity.Record, len(records))
	copy(out, records)
	return out
}
