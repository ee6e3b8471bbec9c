package service

import (
	"fmt"

	"github.com/lite-lake/zonesync/internal/domain"
	"github.com/lite-lake/zonesync/internal/domain/entity"
	"github.com/lite-lake/zonesync/internal/domain/template"
)

// ResolveRecord resolves one record template against vars.
func ResolveRecord(rt *entity.RecordTemplate, vars entity.Variables) (entity.Record, error) {
	name, err := template.ResolveString(rt.Name, vars)
	if err != nil {
		return entity.Record{}, domain.WrapOp("name", err)
	}

	var value entity.RecordValue
	switch {
	case rt.A != nil:
		addr, err := template.ResolveIPv4(rt.A.Addr, vars)
		if err != nil {
			return entity.Record{}, domain.WrapOp("A.addr", err)
		}
		value = entity.AValue(addr)
	case rt.AAAA != nil:
		addr, err := template.ResolveIPv6(rt.AAAA.Addr, vars)
		if err != nil {
			return entity.Record{}, domain.WrapOp("AAAA.addr", err)
		}
		value = entity.AAAAValue(addr)
	case rt.CNAME != nil:
		target, err := template.ResolveString(rt.CNAME.Domain, vars)
		if err != nil {
			return entity.Record{}, domain.WrapOp("CNAME.domain", err)
		}
		value = entity.CNAMEValue(target)
	case rt.SRV != nil:
		value, err = resolveSRV(rt.SRV, vars)
		if err != nil {
			return entity.Record{}, err
		}
	case rt.TXT != nil:
		data, err := template.ResolveString(rt.TXT.Data, vars)
		if err != nil {
			return entity.Record{}, domain.WrapOp("TXT.data", err)
		}
		value = entity.TXTValue(data)
	default:
		return entity.Record{}, rt.Validate()
	}

	return entity.Record{Name: name, Value: value}, nil
}

func resolveSRV(t *entity.SRVTemplate, vars entity.Variables) (entity.RecordValue, error) {
	target, err := template.ResolveString(t.Domain, vars)
	if err != nil {
		return entity.RecordValue{}, domain.WrapOp("SRV.domain", err)
	}
	priority, err := template.ResolveUint16(t.Priority, vars)
	if err != nil {
		return entity.RecordValue{}, domain.WrapOp("SRV.priority", err)
	}
	weight, err := template.ResolveUint16(t.Weight, vars)
	if err != nil {
		return entity.RecordValue{}, domain.WrapOp("SRV.weight", err)
	}
	port, err := template.ResolveUint16(t.Port, vars)
	if err != nil {
		return entity.RecordValue{}, domain.WrapOp("SRV.port", err)
	}
	return entity.SRVValue(target, priority, weight, port), nil
}

// BuildDesiredState resolves every template in order and splits off the zone
// apex A record, which becomes the desired zone IPv4 address. The returned
// zone is nil when no such record exists.
func BuildDesiredState(templates []entity.RecordTemplate, vars entity.Variables) ([]entity.Record, *entity.ZoneValue, error) {
	records := make([]entity.Record, 0, len(templates))
	var zone *entity.ZoneValue

	for i := range templates {
		r, err := ResolveRecord(&templates[i], vars)
		if err != nil {
			return nil, nil, domain.WrapEntity("records", fmt.Sprintf("%d:%s", i, templates[i].Name), err)
		}

		if r.IsZoneAddress() {
			if zone != nil {
				return nil, nil, domain.WrapEntity("records", fmt.Sprintf("%d:%s", i, templates[i].Name), domain.ErrDuplicateZoneAddress)
			}
			zone = &entity.ZoneValue{IPv4: r.Value.Addr}
			continue
		}
		records = append(records, r)
	}

	return records, zone, nil
}
