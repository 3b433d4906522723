package dbsp

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CompileStatusKind enumerates the project compilation states reported by the server.
type CompileStatusKind int

const (
	// StatusNone means the project has never been queued for compilation.
	StatusNone CompileStatusKind = iota
	StatusPending
	StatusCompiling
	StatusSuccess
	StatusSQLError
	StatusRustError
)

var compileStatusNames = map[CompileStatusKind]string{
	StatusNone:      "None",
	StatusPending:   "Pending",
	StatusCompiling: "Compiling",
	StatusSuccess:   "Success",
	StatusSQLError:  "SqlError",
	StatusRustError: "RustError",
}

func (k CompileStatusKind) String() string {
	if name, ok := compileStatusNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(k))
}

// CompileStatus is a single observation of a project's compilation state.
// Detail carries the compiler diagnostic for SqlError and RustError.
type CompileStatus struct {
	Kind   CompileStatusKind
	Detail string
}

// IsTerminal reports whether compilation has finished, successfully or not.
func (s CompileStatus) IsTerminal() bool {
	switch s.Kind {
	case StatusSuccess, StatusSQLError, StatusRustError:
		return true
	default:
		return false
	}
}

// InProgress reports whether the server is still working on the project.
func (s CompileStatus) InProgress() bool {
	return s.Kind == StatusPending || s.Kind == StatusCompiling
}

func (s CompileStatus) String() string {
	if s.Detail == "" {
		return s.Kind.String()
	}
	return s.Kind.String() + ": " + s.Detail
}

// ParseCompileStatus decodes the externally tagged status value used by the
// server: a bare string for unit states, or a single-key object such as
// {"SqlError": "..."} for failures. Values outside the known set produce a
// *ProtocolError.
func ParseCompileStatus(raw json.RawMessage) (CompileStatus, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return CompileStatus{Kind: StatusNone}, nil
	}

	var tag string
	if err := json.Unmarshal(trimmed, &tag); err == nil {
		switch tag {
		case "None":
			return CompileStatus{Kind: StatusNone}, nil
		case "Pending":
			return CompileStatus{Kind: StatusPending}, nil
		case "Compiling":
			return CompileStatus{Kind: StatusCompiling}, nil
		case "Success":
			return CompileStatus{Kind: StatusSuccess}, nil
		}
		return CompileStatus{}, &ProtocolError{Op: "parse compile status", Value: tag}
	}

	var tagged map[string]string
	if err := json.Unmarshal(trimmed, &tagged); err != nil || len(tagged) != 1 {
		return CompileStatus{}, &ProtocolError{Op: "parse compile status", Value: string(trimmed)}
	}
	for key, detail := range tagged {
		switch key {
		case "SqlError":
			return CompileStatus{Kind: StatusSQLError, Detail: detail}, nil
		case "RustError":
			return CompileStatus{Kind: StatusRustError, Detail: detail}, nil
		}
	}
	return CompileStatus{}, &ProtocolError{Op: "parse compile status", Value: string(trimmed)}
}
