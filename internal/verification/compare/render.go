package compare

import "fmt"

// Mismatch is one differing field prepared for display.
type Mismatch struct {
	Field    string `json:"field"`
	Label    string `json:"label"`
	Expected string `json:"expected"`
	Found    string `json:"found"`
	Missing  bool   `json:"missing"`
}

// Report is the rendered outcome of a comparison.
type Report struct {
	Checked    int        `json:"checked"`
	AllMatch   bool       `json:"all_match"`
	Mismatches []Mismatch `json:"mismatches"`
}

// Render compares observed against expected and returns the expected and
// found value of every mismatched field.
func Render(observed Observed, expected Expected) Report {
	keys := Mismatches(observed, expected)
	report := Report{
		Checked:    expected.Len(),
		AllMatch:   len(keys) == 0,
		Mismatches: make([]Mismatch, 0, len(keys)),
	}
	for _, key := range keys {
		f, _ := expected.Lookup(key)
		v, present := observed[key]
		report.Mismatches = append(report.Mismatches, Mismatch{
			Field:    key,
			Label:    f.Label,
			Expected: f.Value,
			Found:    display(v, present),
			Missing:  !present,
		})
	}
	return report
}

func display(v any, present bool) string {
	if !present || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
