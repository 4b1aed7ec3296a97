package minerapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Status letters reported in the STATUS section.
const (
	StatusSuccess = "S"
	StatusWarning = "W"
	StatusInfo    = "I"
	StatusError   = "E"
	StatusFatal   = "F"
)

// Status is the acknowledgement every reply carries.
type Status struct {
	STATUS      string `json:"STATUS"`
	When        int64  `json:"When"`
	Code        int    `json:"Code"`
	Msg         string `json:"Msg"`
	Description string `json:"Description"`
}

// Failed reports whether the daemon rejected the command.
func (s Status) Failed() bool {
	return s.STATUS == StatusError || s.STATUS == StatusFatal
}

func validStatusLetter(letter string) bool {
	switch letter {
	case StatusSuccess, StatusWarning, StatusInfo, StatusError, StatusFatal:
		return true
	default:
		return false
	}
}

// Integer is a whole-number field. Daemon builds differ in whether counters
// are rendered as 100, 100.0, or 1e2; all decode to the same value.
type Integer int64

// UnmarshalJSON accepts any JSON number with no fractional part.
func (n *Integer) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	if v, err := num.Int64(); err == nil {
		*n = Integer(v)
		return nil
	}
	v, err := num.Float64()
	if err != nil {
		return fmt.Errorf("integer field: %w", err)
	}
	if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
		return fmt.Errorf("integer field: %s is not a whole number", num)
	}
	*n = Integer(v)
	return nil
}

// Summary mirrors one SUMMARY section entry.
type Summary struct {
	Elapsed     Integer `json:"Elapsed"`
	FoundBlocks Integer `json:"Found Blocks"`
	MHSAv       float64 `json:"MHS av"`
	MHS30s      float64 `json:"MHS 30s"`
}

// GPU mirrors one GPU section entry.
type GPU struct {
	GPU         Integer `json:"GPU"`
	Enabled     string  `json:"Enabled"`
	Temperature float64 `json:"Temperature"`
	FanSpeed    float64 `json:"Fan Speed"`
	FanPercent  float64 `json:"Fan Percent"`
	GPUClock    float64 `json:"GPU Clock"`
	MemoryClock float64 `json:"Memory Clock"`
	GPUVoltage  float64 `json:"GPU Voltage"`
	GPUActivity float64 `json:"GPU Activity"`
	MHSAv       float64 `json:"MHS av"`
	MHS30s      float64 `json:"MHS 30s"`
	Accepted    Integer `json:"Accepted"`
	Rejected    Integer `json:"Rejected"`
}

// IsEnabled reports the Enabled flag as a bool.
func (g GPU) IsEnabled() bool { return g.Enabled == "Y" }

// Count mirrors the GPUS section returned by gpucount.
type Count struct {
	Count Integer `json:"Count"`
}

// SummaryResult is the decoded reply to summary. Summary is nil when the
// daemon reported a failure without a data section.
type SummaryResult struct {
	Status  Status   `json:"status"`
	Summary *Summary `json:"data,omitempty"`
}

// GPUResult is the decoded reply to gpu.
type GPUResult struct {
	Status Status `json:"status"`
	GPUs   []GPU  `json:"data"`
}

// CountResult is the decoded reply to gpucount.
type CountResult struct {
	Status Status `json:"status"`
	Count  *Count `json:"data,omitempty"`
}
