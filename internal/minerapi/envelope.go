package minerapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

const (
	sectionStatus  = "STATUS"
	sectionSummary = "SUMMARY"
	sectionGPU     = "GPU"
	sectionGPUs    = "GPUS"
	fieldID        = "id"
)

// Envelope is one decoded reply: the scalar status plus the raw payload
// sections keyed by their uppercase name.
type Envelope struct {
	Status   Status
	sections map[string]json.RawMessage
}

// DecodeEnvelope parses a reply frame. STATUS and sections may arrive either
// as a bare object or as an array; both normalize to the same shape.
func DecodeEnvelope(data []byte) (Envelope, error) {
	data = bytes.TrimRight(data, "\x00")

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Envelope{}, &CodecError{Kind: InvalidJSON, Err: err}
	}

	rawStatus, ok := raw[sectionStatus]
	if !ok || isNull(rawStatus) {
		return Envelope{}, &CodecError{Kind: MissingStatus}
	}
	statuses, err := decodeSequence[Status](rawStatus)
	if err != nil {
		return Envelope{}, &CodecError{Kind: InvalidSection, Section: sectionStatus, Err: err}
	}
	if len(statuses) == 0 {
		return Envelope{}, &CodecError{Kind: MissingStatus}
	}
	status := statuses[0]
	if !validStatusLetter(status.STATUS) {
		return Envelope{}, &CodecError{
			Kind:    InvalidSection,
			Section: sectionStatus,
			Err:     fmt.Errorf("unknown status letter %q", status.STATUS),
		}
	}

	delete(raw, sectionStatus)
	delete(raw, fieldID)
	return Envelope{Status: status, sections: raw}, nil
}

// Has reports whether the reply carried the named section.
func (e Envelope) Has(name string) bool {
	raw, ok := e.sections[name]
	return ok && !isNull(raw)
}

// Sections lists the payload section names in sorted order.
func (e Envelope) Sections() []string {
	names := make([]string, 0, len(e.sections))
	for name := range e.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecodeSection decodes the named section into a sequence of T.
func DecodeSection[T any](env Envelope, name string) ([]T, error) {
	if !env.Has(name) {
		return nil, &CodecError{Kind: MissingSection, Section: name}
	}
	items, err := decodeSequence[T](env.sections[name])
	if err != nil {
		return nil, &CodecError{Kind: InvalidSection, Section: name, Err: err}
	}
	return items, nil
}

func decodeSequence[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty value")
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	case '{':
		var item T
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return nil, err
		}
		return []T{item}, nil
	default:
		return nil, fmt.Errorf("expected object or array, got %q", truncate(trimmed, 32))
	}
}

func validateGPUs(gpus []GPU) error {
	for _, gpu := range gpus {
		if gpu.Enabled != "Y" && gpu.Enabled != "N" {
			return &CodecError{
				Kind:    InvalidSection,
				Section: sectionGPU,
				Err:     fmt.Errorf("gpu %d: Enabled must be Y or N, got %q", gpu.GPU, gpu.Enabled),
			}
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
