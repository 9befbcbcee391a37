// Package celenv builds the CEL environment the schema engine's optional
// CEL-backed parameter expressions compile and run against. It is
// deliberately narrow: the standard CEL library plus a handful of
// byte-oriented helpers schemas commonly need (stripping pad bytes,
// locating a terminator) that CEL's standard library has no notion of.
package celenv

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Base returns the shared CEL environment every compiled expression extends
// with its own free-variable declarations (see Pool.Get).
func Base() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.StdLib(),
		byteHelpers(),
	)
	if err != nil {
		return nil, fmt.Errorf("celenv: building base environment: %w", err)
	}
	return env, nil
}

// byteHelpers registers the small set of byte-slice functions schema
// expressions lean on: stripping a trailing pad byte and locating a
// terminator byte, both staples of fixed-width and null-terminated string
// fields.
func byteHelpers() cel.EnvOption {
	return cel.Lib(byteHelperLib{})
}

type byteHelperLib struct{}

func (byteHelperLib) LibraryName() string { return "binschema.bytehelpers" }

func (byteHelperLib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		cel.Function("bytesStripRight",
			cel.Overload("bytesStripRight_bytes_int",
				[]*cel.Type{cel.BytesType, cel.IntType}, cel.BytesType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					data, ok := lhs.(types.Bytes)
					pad, ok2 := rhs.(types.Int)
					if !ok || !ok2 {
						return types.NewErr("bytesStripRight: invalid arguments")
					}
					end := len(data)
					for end > 0 && data[end-1] == byte(pad) {
						end--
					}
					return types.Bytes(data[:end])
				}),
			),
		),
		cel.Function("bytesTerminate",
			cel.Overload("bytesTerminate_bytes_int_bool",
				[]*cel.Type{cel.BytesType, cel.IntType, cel.BoolType}, cel.BytesType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					if len(args) != 3 {
						return types.NewErr("bytesTerminate: expected 3 arguments")
					}
					data, ok := args[0].(types.Bytes)
					term, ok2 := args[1].(types.Int)
					include, ok3 := args[2].(types.Bool)
					if !ok || !ok2 || !ok3 {
						return types.NewErr("bytesTerminate: invalid arguments")
					}
					for i, b := range data {
						if b == byte(term) {
							if bool(include) {
								return types.Bytes(data[:i+1])
							}
							return types.Bytes(data[:i])
						}
					}
					return types.Bytes(data)
				}),
			),
		),
	}
}

func (byteHelperLib) ProgramOptions() []cel.ProgramOption { return nil }
