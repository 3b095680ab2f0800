package host

import (
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

// FlattenTypes flattens WIT types to core wasm value types.
func FlattenTypes(types []wit.Type) []api.ValueType {
	var result []api.ValueType
	for _, t := range types {
		result = append(result, FlattenType(t)...)
	}
	return result
}

// FlattenType flattens a single WIT type. Only the scalar and handle types
// host functions use here are supported; anything else flattens to i32.
func FlattenType(t wit.Type) []api.ValueType {
	if t == nil {
		return nil
	}

	switch v := t.(type) {
	case wit.Bool, wit.U8, wit.U16, wit.U32, wit.S8, wit.S16, wit.S32, wit.Char:
		return []api.ValueType{api.ValueTypeI32}
	case wit.U64, wit.S64:
		return []api.ValueType{api.ValueTypeI64}
	case wit.F32:
		return []api.ValueType{api.ValueTypeF32}
	case wit.F64:
		return []api.ValueType{api.ValueTypeF64}
	case wit.String:
		return []api.ValueType{api.ValueTypeI32, api.ValueTypeI32} // ptr, len
	case *wit.TypeDef:
		return flattenTypeDef(v)
	default:
		return []api.ValueType{api.ValueTypeI32}
	}
}

func flattenTypeDef(td *wit.TypeDef) []api.ValueType {
	if td == nil || td.Kind == nil {
		return []api.ValueType{api.ValueTypeI32}
	}

	switch kind := td.Kind.(type) {
	case *wit.Own, *wit.Borrow, *wit.Resource:
		return []api.ValueType{api.ValueTypeI32} // handle
	case wit.Type:
		return FlattenType(kind)
	default:
		return []api.ValueType{api.ValueTypeI32}
	}
}
