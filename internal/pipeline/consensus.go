package pipeline

import (
	"fmt"

	"github.com/sells-group/clinic-phone/internal/model"
)

// Resolution is the outcome of a vote over evidence.
type Resolution struct {
	Phone string
	Label string
	Count int
	Total int
}

// Found reports whether the vote produced a phone number.
func (r Resolution) Found() bool {
	return r.Phone != model.NotFound
}

func notFound() Resolution {
	return Resolution{Phone: model.NotFound, Label: model.NotFound}
}

// Resolve picks the phone candidate occurring most often in evidence.
// Candidates are compared as exact strings. Ties go to the candidate seen
// first.
func Resolve(evidence []model.EvidenceRecord) Resolution {
	if len(evidence) == 0 {
		return notFound()
	}

	counts := make(map[string]int, len(evidence))
	var order []string
	for _, e := range evidence {
		if counts[e.PhoneCandidate] == 0 {
			order = append(order, e.PhoneCandidate)
		}
		counts[e.PhoneCandidate]++
	}

	best := order[0]
	for _, candidate := range order[1:] {
		if counts[candidate] > counts[best] {
			best = candidate
		}
	}

	return Resolution{
		Phone: best,
		Label: consensusLabel(counts[best], len(evidence)),
		Count: counts[best],
		Total: len(evidence),
	}
}

func consensusLabel(count, total int) string {
	return fmt.Sprintf("Deep Search (%d/%d similar results)", count, total)
}
