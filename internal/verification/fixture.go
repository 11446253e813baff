package verification

import (
	"maps"

	"academia/internal/platform/config"
	"academia/internal/verification/compare"
)

var defaultExpected = []compare.Field{
	{Key: "name", Label: "Name", Value: "Sidhesh Shah"},
	{Key: "phone", Label: "Phone", Value: "9876543217"},
	{Key: "roll_number", Label: "Roll Number", Value: "16010121045"},
	{Key: "institute", Label: "Institute", Value: "KJSIT"},
	{Key: "programme", Label: "Programme", Value: "B.Tech Computer Engineering"},
	{Key: "cgpa", Label: "CGPA", Value: "9.12"},
}

// The mock service reports a different phone number so the mismatch view
// is exercised out of the box.
var defaultMockRecord = compare.Observed{
	"name":        "Sidhesh Shah",
	"phone":       "0000000000",
	"roll_number": "16010121045",
	"institute":   "KJSIT",
	"programme":   "B.Tech Computer Engineering",
	"cgpa":        "9.12",
}

// DefaultExpected returns the built-in expected record.
func DefaultExpected() compare.Expected {
	return compare.MustExpected(defaultExpected)
}

// DefaultMockRecord returns a copy of the payload the mock verifier returns.
func DefaultMockRecord() compare.Observed {
	return maps.Clone(defaultMockRecord)
}

// ExpectedFromConfig builds the expected record, falling back to the
// built-in one when cfg lists no fields.
func ExpectedFromConfig(cfg config.Verification) (compare.Expected, error) {
	if len(cfg.Expected) == 0 {
		return DefaultExpected(), nil
	}
	fields := make([]compare.Field, 0, len(cfg.Expected))
	for _, f := range cfg.Expected {
		fields = append(fields, compare.Field{Key: f.Key, Label: f.Label, Value: f.Value})
	}
	return compare.NewExpected(fields)
}

// MockRecordFromConfig returns the configured mock payload or the built-in one.
func MockRecordFromConfig(cfg config.Verification) compare.Observed {
	if len(cfg.MockRecord) == 0 {
		return DefaultMockRecord()
	}
	return compare.Observed(maps.Clone(cfg.MockRecord))
}
