package tribunal

import "github.com/vigiajus/vigiajus/internal/domain/cnj"

// classForSegment maps a judiciary segment to its budget class.
func classForSegment(segment int) Class {
	switch segment {
	case cnj.SegmentSTF, cnj.SegmentCNJ, cnj.SegmentSTJ:
		return ClassSuperior
	case cnj.SegmentFederal:
		return ClassFederal
	case cnj.SegmentLabor:
		return ClassLabor
	case cnj.SegmentElectoral:
		return ClassElectoral
	case cnj.SegmentMilitaryU, cnj.SegmentMilitaryS:
		return ClassMilitary
	default:
		return ClassState
	}
}

// seedConfigs flattens the CNJ numbering tables into registry entries.
// Everything starts active; deployment config deactivates courts without
// a reachable consultation system.
func seedConfigs() []*Config {
	entries := cnj.AllTribunals()
	out := make([]*Config, 0, len(entries))
	for _, e := range entries {
		out = append(out, &Config{
			Code:     e.Code,
			Name:     e.Name,
			Segment:  e.Segment,
			Class:    classForSegment(e.Segment),
			IsActive: true,
		})
	}
	return out
}
