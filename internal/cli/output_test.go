package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srcf/srcf-sync/internal/contract"
	"github.com/srcf/srcf-sync/internal/jcs"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data, []string{"ignored in json"})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.NotContains(t, buf.String(), "ignored")
}

func TestOutputFormatter_TextSuccessLines(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(nil, []string{"a.json", "b.json"}))
	assert.Equal(t, "a.json\nb.json\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Success(nil, []string{}))
	assert.Empty(t, buf.String())

	buf.Reset()
	require.NoError(t, formatter.Success("plain", nil))
	assert.Equal(t, "plain\n", buf.String())
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeFindings, "2 finding(s)", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E005", resp.Error.Code)
	assert.Equal(t, "2 finding(s)", resp.Error.Message)
}

func TestOutputFormatter_TextErrorIsSilent(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeIO, "disk full", nil))
	assert.Empty(t, buf.String())
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	cause := &contract.InputError{Field: "table", Value: "Bad", Reason: "must match ^[a-z0-9][a-z0-9-]*$"}
	err := formatter.Fail("failed to render snapshot", cause)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	var inputErr *contract.InputError
	assert.ErrorAs(t, err, &inputErr)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, ErrCodeInput, resp.Error.Code)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeInput, errorCode(fmt.Errorf("x: %w", &contract.InputError{Field: "row_id"})))
	assert.Equal(t, ErrCodeEncoding, errorCode(&jcs.EncodingError{Reason: "NaN"}))
	assert.Equal(t, ErrCodeEncoding, errorCode(&jcs.ParseError{Offset: 3, Reason: "bad"}))
	assert.Equal(t, ErrCodeIO, errorCode(errors.New("permission denied")))
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("checked %d files", 3)
	assert.Empty(t, out.String())
	assert.Equal(t, "checked 3 files\n", errOut.String())

	formatter.Verbose = false
	errOut.Reset()
	formatter.VerboseLog("hidden")
	assert.Empty(t, errOut.String())
}
