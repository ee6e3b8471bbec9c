package valueobject

// Plan is the ordered operation list of one reconciliation round.
type Plan struct {
	operations []*Operation
}

func NewPlan(ops ...*Operation) *Plan {
	operations := make([]*Operation, 0, len(ops))
	operations = append(operations, ops...)
	return &Plan{operations: operations}
}

func (p *Plan) Operations() []*Operation { return p.operations }
func (p *Plan) Len() int                 { return len(p.operations) }

func (p *Plan) AddOperation(op *Operation) {
	p.operations = append(p.operations, op)
}

func (p *Plan) HasChanges() bool {
	return len(p.operations) > 0
}

func (p *Plan) FilterByKind(kind OperationKind) []*Operation {
	var result []*Operation
	for _, op := range p.operations {
		if op.Kind() == kind {
			result = append(result, op)
		}
	}
	return result
}

func (p *Plan) CountByKind() map[OperationKind]int {
	counts := make(map[OperationKind]int)
	for _, op := range p.operations {
		counts[op.Kind()]++
	}
	return counts
}

func (p *Plan) Equals(other *Plan) bool {
	if other == nil {
		return false
	}
	if len(p.operations) != len(other.operations) {
		return false
	}
	for i, op := range p.operations {
		if !op.Equals(other.operations[i]) {
			return false
		}
	}
	return true
}
