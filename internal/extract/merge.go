package extract

import (
	"github.com/fyrsmithlabs/agreementd/internal/agreement"
)

// mergeParties appends new parties, deduplicating by lower-cased name.
// On a duplicate key, the first-seen entry wins field by field: only
// fields the existing entry lacks are filled in.
func mergeParties(existing, incoming []agreement.Party) []agreement.Party {
	index := make(map[string]int, len(existing))
	for i, p := range existing {
		index[agreement.NormalizeName(p.Name)] = i
	}

	for _, p := range incoming {
		key := agreement.NormalizeName(p.Name)
		if key == "" {
			continue
		}
		i, seen := index[key]
		if !seen {
			index[key] = len(existing)
			existing = append(existing, p)
			continue
		}
		if existing[i].Role == "" {
			existing[i].Role = p.Role
		}
		if existing[i].LEI == "" {
			existing[i].LEI = p.LEI
		}
	}
	return existing
}

// mergeFacilities appends new facilities, deduplicating by lower-cased
// name with first-seen-wins field-level merge.
func mergeFacilities(existing, incoming []agreement.Facility) []agreement.Facility {
	index := make(map[string]int, len(existing))
	for i, f := range existing {
		index[agreement.NormalizeName(f.Name)] = i
	}

	for _, f := range incoming {
		key := agreement.NormalizeName(f.Name)
		if key == "" {
			continue
		}
		i, seen := index[key]
		if !seen {
			index[key] = len(existing)
			existing = append(existing, f)
			continue
		}
		cur := &existing[i]
		if cur.Amount == nil {
			cur.Amount = f.Amount
		}
		if cur.FacilityType == "" {
			cur.FacilityType = f.FacilityType
		}
		if cur.SpreadBps == nil {
			cur.SpreadBps = f.SpreadBps
		}
		if cur.Benchmark == "" {
			cur.Benchmark = f.Benchmark
		}
		if cur.MaturityDate == "" {
			cur.MaturityDate = f.MaturityDate
		}
	}
	return existing
}
