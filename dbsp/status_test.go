package dbsp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCompileStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw      string
		want     CompileStatus
		terminal bool
		wantErr  bool
	}{
		{raw: ``, want: CompileStatus{Kind: StatusNone}},
		{raw: `null`, want: CompileStatus{Kind: StatusNone}},
		{raw: `"None"`, want: CompileStatus{Kind: StatusNone}},
		{raw: `"Pending"`, want: CompileStatus{Kind: StatusPending}},
		{raw: ` "Compiling" `, want: CompileStatus{Kind: StatusCompiling}},
		{raw: `"Success"`, want: CompileStatus{Kind: StatusSuccess}, terminal: true},
		{raw: `{"SqlError":"line 1: no such table"}`, want: CompileStatus{Kind: StatusSQLError, Detail: "line 1: no such table"}, terminal: true},
		{raw: `{"RustError":"E0425"}`, want: CompileStatus{Kind: StatusRustError, Detail: "E0425"}, terminal: true},
		{raw: `"success"`, wantErr: true},
		{raw: `{"SqlError":"a","RustError":"b"}`, wantErr: true},
		{raw: `{"SqlError":{"line":1}}`, wantErr: true},
		{raw: `{"Other":"x"}`, wantErr: true},
		{raw: `[]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCompileStatus(json.RawMessage(tt.raw))
			if tt.wantErr {
				var protoErr *ProtocolError
				require.ErrorAs(t, err, &protoErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.terminal, got.IsTerminal())
		})
	}
}

func TestCompileStatus_InProgress(t *testing.T) {
	require.True(t, CompileStatus{Kind: StatusPending}.InProgress())
	require.True(t, CompileStatus{Kind: StatusCompiling}.InProgress())
	require.False(t, CompileStatus{Kind: StatusNone}.InProgress())
	require.False(t, CompileStatus{Kind: StatusSuccess}.InProgress())
}

func TestCompileStatus_String(t *testing.T) {
	require.Equal(t, "Compiling", CompileStatus{Kind: StatusCompiling}.String())
	require.Equal(t, "SqlError: bad", CompileStatus{Kind: StatusSQLError, Detail: "bad"}.String())
	require.Equal(t, "Unknown(99)", CompileStatusKind(99).String())
}

func TestProjectDescr_CompileStatus(t *testing.T) {
	descr := ProjectDescr{Status: json.RawMessage(`{"SqlError":"bad"}`)}
	status, err := descr.CompileStatus()
	require.NoError(t, err)
	require.Equal(t, StatusSQLError, status.Kind)
}
