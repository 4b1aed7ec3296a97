package minerapi

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const summaryReply = `{"STATUS":[{"STATUS":"S","When":123,"Code":11,"Msg":"Summary","Description":"sgminer"}],"SUMMARY":[{"Elapsed":100,"Found Blocks":0,"MHS av":500.0,"MHS 30s":510.2}],"id":1}`

func TestEncodeCommandRoundTripsForEveryCommand(t *testing.T) {
	gpu, err := GPUCommand(0)
	require.NoError(t, err)
	enable, err := GPUEnableCommand(1)
	require.NoError(t, err)
	disable, err := GPUDisableCommand(12)
	require.NoError(t, err)

	tests := []struct {
		cmd       Command
		wantName  string
		wantParam string
	}{
		{cmd: SummaryCommand(), wantName: "summary"},
		{cmd: GPUCountCommand(), wantName: "gpucount"},
		{cmd: gpu, wantName: "gpu", wantParam: "0"},
		{cmd: enable, wantName: "gpuenable", wantParam: "1"},
		{cmd: disable, wantName: "gpudisable", wantParam: "12"},
	}

	for _, tc := range tests {
		t.Run(tc.wantName, func(t *testing.T) {
			payload, err := EncodeCommand(tc.cmd)
			require.NoError(t, err)
			require.NotContains(t, string(payload), "\n")

			var decoded map[string]string
			require.NoError(t, json.Unmarshal(payload, &decoded))
			require.Equal(t, map[string]string{"command": tc.wantName, "parameters": tc.wantParam}, decoded)
		})
	}
}

func TestEncodeCommandExactWireForm(t *testing.T) {
	payload, err := EncodeCommand(SummaryCommand())
	require.NoError(t, err)
	require.Equal(t, `{"command":"summary","parameters":""}`, string(payload))
}

func TestEncodeCommandRejectsZeroValue(t *testing.T) {
	_, err := EncodeCommand(Command{})
	require.Error(t, err)
}

func TestDeviceCommandRejectsNegativeIndex(t *testing.T) {
	_, err := GPUCommand(-1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "gpu index must be >= 0")
}

func TestParseIndex(t *testing.T) {
	index, err := ParseIndex("007")
	require.NoError(t, err)
	require.Equal(t, 7, index)

	for _, raw := range []string{"", "-1", "+1", "1.5", " 1", "99999999999999999999"} {
		_, err := ParseIndex(raw)
		require.Error(t, err, raw)
	}
}

func TestDecodeEnvelopeArrayStatus(t *testing.T) {
	env, err := DecodeEnvelope([]byte(summaryReply))
	require.NoError(t, err)
	require.Equal(t, Status{STATUS: "S", When: 123, Code: 11, Msg: "Summary", Description: "sgminer"}, env.Status)
	require.True(t, env.Has("SUMMARY"))
	require.False(t, env.Has("id"))
	require.Equal(t, []string{"SUMMARY"}, env.Sections())

	items, err := DecodeSection[Summary](env, "SUMMARY")
	require.NoError(t, err)
	require.Equal(t, []Summary{{Elapsed: 100, FoundBlocks: 0, MHSAv: 500.0, MHS30s: 510.2}}, items)
}

func TestDecodeEnvelopeBareObjectShapes(t *testing.T) {
	raw := `{"STATUS":{"STATUS":"S","When":5,"Code":17,"Msg":"GPU0","Description":"cgminer"},` +
		`"GPU":{"GPU":0,"Enabled":"Y","Temperature":65.5,"Fan Speed":3000,"Fan Percent":55,"GPU Clock":900,` +
		`"Memory Clock":1250,"GPU Voltage":1.1,"GPU Activity":99,"MHS av":400.1,"MHS 30s":401.2,"Accepted":10,"Rejected":1}}`

	env, err := DecodeEnvelope([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, "S", env.Status.STATUS)

	gpus, err := DecodeSection[GPU](env, "GPU")
	require.NoError(t, err)
	require.Len(t, gpus, 1)
	require.Equal(t, "Y", gpus[0].Enabled)
	require.InDelta(t, 65.5, gpus[0].Temperature, 1e-9)
	require.Equal(t, Integer(10), gpus[0].Accepted)
}

func TestDecodeEnvelopeToleratesTrailingNUL(t *testing.T) {
	env, err := DecodeEnvelope(append([]byte(summaryReply), 0))
	require.NoError(t, err)
	require.Equal(t, "S", env.Status.STATUS)
}

func TestDecodeEnvelopeFailures(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		sentinel error
		kind     CodecErrorKind
	}{
		{name: "not json", raw: "not-json", sentinel: ErrInvalidJSON, kind: InvalidJSON},
		{name: "truncated", raw: `{"STATUS":[{"STATUS":"S"`, sentinel: ErrInvalidJSON, kind: InvalidJSON},
		{name: "json array root", raw: `[1,2,3]`, sentinel: ErrInvalidJSON, kind: InvalidJSON},
		{name: "empty", raw: "", sentinel: ErrInvalidJSON, kind: InvalidJSON},
		{name: "no status", raw: `{"SUMMARY":[{"Elapsed":1}]}`, sentinel: ErrMissingStatus, kind: MissingStatus},
		{name: "null status", raw: `{"STATUS":null}`, sentinel: ErrMissingStatus, kind: MissingStatus},
		{name: "empty status array", raw: `{"STATUS":[]}`, sentinel: ErrMissingStatus, kind: MissingStatus},
		{name: "status string", raw: `{"STATUS":"S"}`, sentinel: ErrInvalidSection, kind: InvalidSection},
		{name: "status wrong type", raw: `{"STATUS":[{"STATUS":"S","Code":"eleven"}]}`, sentinel: ErrInvalidSection, kind: InvalidSection},
		{name: "unknown letter", raw: `{"STATUS":[{"STATUS":"X"}]}`, sentinel: ErrInvalidSection, kind: InvalidSection},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(tc.raw))
			require.Error(t, err)
			require.ErrorIs(t, err, tc.sentinel)

			var codecErr *CodecError
			require.True(t, errors.As(err, &codecErr))
			require.Equal(t, tc.kind, codecErr.Kind)
		})
	}
}

func TestDecodeSectionMissingAndInvalid(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"STATUS":[{"STATUS":"S"}],"SUMMARY":[{"MHS av":"fast"}]}`))
	require.NoError(t, err)

	_, err = DecodeSection[GPU](env, "GPU")
	require.ErrorIs(t, err, ErrMissingSection)
	require.Contains(t, err.Error(), `"GPU"`)

	_, err = DecodeSection[Summary](env, "SUMMARY")
	require.ErrorIs(t, err, ErrInvalidSection)
}

func TestValidateGPUsRejectsUnknownEnabledFlag(t *testing.T) {
	require.NoError(t, validateGPUs([]GPU{{Enabled: "Y"}, {Enabled: "N"}}))

	err := validateGPUs([]GPU{{GPU: 2, Enabled: "yes"}})
	require.ErrorIs(t, err, ErrInvalidSection)
	require.Contains(t, err.Error(), "gpu 2")
}

func TestStatusFailed(t *testing.T) {
	for _, letter := range []string{"S", "W", "I"} {
		require.False(t, Status{STATUS: letter}.Failed(), letter)
	}
	for _, letter := range []string{"E", "F"} {
		require.True(t, Status{STATUS: letter}.Failed(), letter)
	}
}

func TestDecodeSectionAcceptsWholeFloatCounters(t *testing.T) {
	raw := `{"STATUS":[{"STATUS":"S"}],"SUMMARY":[{"Elapsed":100.0,"Found Blocks":1e2,"MHS av":500,"MHS 30s":510.2}],` +
		`"GPU":[{"GPU":1.0,"Enabled":"N","Accepted":4.2e1,"Rejected":0.0}],"GPUS":[{"Count":2.0}]}`

	env, err := DecodeEnvelope([]byte(raw))
	require.NoError(t, err)

	summaries, err := DecodeSection[Summary](env, "SUMMARY")
	require.NoError(t, err)
	require.Equal(t, Integer(100), summaries[0].Elapsed)
	require.Equal(t, Integer(100), summaries[0].FoundBlocks)

	gpus, err := DecodeSection[GPU](env, "GPU")
	require.NoError(t, err)
	require.Equal(t, Integer(1), gpus[0].GPU)
	require.Equal(t, Integer(42), gpus[0].Accepted)
	require.Equal(t, Integer(0), gpus[0].Rejected)

	counts, err := DecodeSection[Count](env, "GPUS")
	require.NoError(t, err)
	require.Equal(t, Integer(2), counts[0].Count)
}

func TestDecodeSectionRejectsFractionalCounters(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"STATUS":[{"STATUS":"S"}],"SUMMARY":[{"Elapsed":100.5}]}`))
	require.NoError(t, err)

	_, err = DecodeSection[Summary](env, "SUMMARY")
	require.ErrorIs(t, err, ErrInvalidSection)
}
