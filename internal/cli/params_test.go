package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fhegraph/internal/params"
)

func TestParamsCommand_ListText(t *testing.T) {
	out, err := execute(NewParamsCommand(&RootOptions{Format: "text"}))
	require.NoError(t, err)

	for _, want := range []string{"Preset", params.SmartFHE3, params.LattigoN14T65537, "16384", "65537", "tc128"} {
		assert.Contains(t, out, want)
	}
}

func TestParamsCommand_ListJSON(t *testing.T) {
	out, err := execute(NewParamsCommand(&RootOptions{Format: "json"}))
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   []ParamsEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, params.LattigoN14T65537, resp.Data[0].Name)
	assert.Equal(t, params.SmartFHE3, resp.Data[1].Name)
	assert.Equal(t, 106, resp.Data[1].LogQ)
	assert.Equal(t, uint64(4096), resp.Data[1].Params.PlainModulus)
}

func TestParamsCommand_DescribePreset(t *testing.T) {
	out, err := execute(NewParamsCommand(&RootOptions{Format: "text"}), params.SmartFHE3)
	require.NoError(t, err)
	assert.Contains(t, out, "smart-fhe-3: n=4096, t=4096, log(q)=106")
	assert.Contains(t, out, "coeff_modulus")
	assert.Contains(t, out, "68719403009")
}

func TestParamsCommand_DescribeFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "small.yaml", smallParamsYAML)

	out, err := execute(NewParamsCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var resp struct {
		Data ParamsEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "small", resp.Data.Name)
	assert.Equal(t, uint64(32), resp.Data.Params.LatticeDimension)
	assert.Equal(t, 16, resp.Data.LogQ)
	assert.Equal(t, "bfv", string(resp.Data.Params.SchemeType))
}

func TestParamsCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "lattice_dimension: 30\ncoeff_modulus: [65537]\nplain_modulus: 257\n")

	tests := []struct {
		name     string
		arg      string
		wantCode string
	}{
		{"unknown preset", "no-such-preset", ErrCodeNotFound},
		{"invalid file", bad, ErrCodeLoadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(NewParamsCommand(&RootOptions{Format: "json"}), tt.arg)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestParamsCommand_TooManyArgs(t *testing.T) {
	_, err := execute(NewParamsCommand(&RootOptions{Format: "text"}), "a", "b")
	require.Error(t, err)
}
