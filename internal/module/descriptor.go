// Package module loads and runs bundled scripts ("modules") described
// by TOML descriptor files scattered under a root directory. A module
// is a named, pre-vetted script that gets uploaded and run on a remote
// host in place of an ad-hoc shell command — the registry is the
// lookup layer between a module name on the command line and the
// script (plus interpreter) that name resolves to.
package module

import (
	"fmt"
	"strings"
)

// Type identifies how a module's exec_path should be invoked on the
// remote host.
type Type int

const (
	// TypeBin runs exec_path directly, as a compiled or otherwise
	// self-executing binary.
	TypeBin Type = iota
	// TypeBash runs exec_path via bash.
	TypeBash
	// TypePython runs exec_path via python3.
	TypePython
)

func (t Type) String() string {
	switch t {
	case TypeBin:
		return "bin"
	case TypeBash:
		return "bash"
	case TypePython:
		return "python"
	default:
		return "unknown"
	}
}

// Interpreter returns the remote command prefix needed to invoke a
// module of this type, or "" for TypeBin (the module is itself the
// command).
func (t Type) Interpreter() string {
	switch t {
	case TypeBash:
		return "bash"
	case TypePython:
		return "python3"
	default:
		return ""
	}
}

// parseType maps a descriptor's module_type string onto a Type,
// aliasing "sh" to bash and "py" to python the way the shorthand is
// commonly written in shebang lines.
func parseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "bin":
		return TypeBin, nil
	case "bash", "sh":
		return TypeBash, nil
	case "python", "py":
		return TypePython, nil
	default:
		return 0, fmt.Errorf("bad module_type %q: must be one of bin, bash, sh, python, py", s)
	}
}

// UnmarshalTOML implements toml.Unmarshaler-compatible decoding for
// Type from a bare string value.
func (t *Type) UnmarshalTOML(v interface{}) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("module_type must be a string, got %T", v)
	}
	parsed, err := parseType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Descriptor is the parsed contents of one module's TOML file.
type Descriptor struct {
	// Name is the module's lookup key, independent of its file path.
	Name string `toml:"module_name"`
	// ExecType controls how ExecPath is invoked remotely.
	ExecType Type `toml:"module_type"`
	// ExecPath is the local path to the script/binary to upload,
	// resolved relative to the descriptor file's own directory.
	ExecPath string `toml:"exec_path"`
}

// Validate checks that a freshly-parsed Descriptor is usable.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("module_name is required")
	}
	if strings.TrimSpace(d.ExecPath) == "" {
		return fmt.Errorf("exec_path is required")
	}
	return nil
}
