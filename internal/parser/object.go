package parser

// Field describes one object member: how to parse it and, for migrated
// shapes, the legacy key it may still be stored under.
type Field struct {
	parse     Parser[any]
	legacyKey string
}

// Key declares an object member parsed with p.
func Key[T any](p Parser[T]) Field {
	return Field{parse: Raw(p)}
}

// Rename declares an object member that may also appear under oldKey in
// legacy data. The current key always wins when both are present.
func Rename[T any](oldKey string, p Parser[T]) Field {
	return Field{parse: Raw(p), legacyKey: oldKey}
}

// Object accepts a JSON object with the given required and optional members,
// keyed by their current names. Unknown keys are ignored for forward
// compatibility. The result maps current names to parsed values; absent
// optional members are simply missing from the map.
func Object(required map[string]Field, optional map[string]Field) Parser[map[string]any] {
	return New(func(raw any) (map[string]any, error) {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, &Error{Expected: "object", Got: describe(raw)}
		}
		out := make(map[string]any, len(required)+len(optional))
		for name, field := range required {
			item, present := lookup(obj, name, field.legacyKey)
			if !present {
				return nil, &Error{Path: name, Expected: "required key", Got: "missing"}
			}
			v, err := field.parse.run(item)
			if err != nil {
				return nil, prefixPath(err, name)
			}
			out[name] = v
		}
		for name, field := range optional {
			item, present := lookup(obj, name, field.legacyKey)
			if !present {
				continue
			}
			v, err := field.parse.run(item)
			if err != nil {
				return nil, prefixPath(err, name)
			}
			out[name] = v
		}
		return out, nil
	})
}

func lookup(obj map[string]any, name, legacy string) (any, bool) {
	if v, ok := obj[name]; ok {
		return v, true
	}
	if legacy != "" {
		if v, ok := obj[legacy]; ok {
			return v, true
		}
	}
	return nil, false
}
