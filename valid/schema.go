package valid

import (
	"fmt"
	"strings"
)

// ParseSchema builds an object schema from a compact text form:
//
//	id:number,name:string,active:bool
//
// Each entry is field:type; a '?' suffix on the type marks the field
// optional ("age:number?"). Recognized types are string, number,
// integer, bool and any.
func ParseSchema(s string) (*ObjectValidator, error) {
	obj := Object()
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return obj, nil
	}

	seen := map[string]bool{}
	for _, entry := range strings.Split(trimmed, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, typeName, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("schema entry %q: expected field:type", entry)
		}
		name = strings.TrimSpace(name)
		typeName = strings.TrimSpace(typeName)
		if name == "" {
			return nil, fmt.Errorf("schema entry %q: empty field name", entry)
		}
		if seen[name] {
			return nil, fmt.Errorf("schema field %q declared twice", name)
		}
		seen[name] = true

		optional := strings.HasSuffix(typeName, "?")
		typeName = strings.TrimSuffix(typeName, "?")

		v, err := typeValidator(typeName)
		if err != nil {
			return nil, fmt.Errorf("schema field %q: %w", name, err)
		}
		if optional {
			obj.OptionalField(name, v)
		} else {
			obj.Field(name, v)
		}
	}
	return obj, nil
}

func typeValidator(name string) (Value, error) {
	switch strings.ToLower(name) {
	case "string", "str":
		return String(), nil
	case "number", "num", "float":
		return Number(), nil
	case "integer", "int":
		return Integer(), nil
	case "bool", "boolean":
		return Bool(), nil
	case "any", "":
		return Any(), nil
	default:
		return nil, fmt.Errorf("unknown type %q", name)
	}
}
