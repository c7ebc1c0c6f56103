package value

import "strings"

// Interpolate implements the engine's full templating language (spec §4.1):
// textual, non-recursive substitution of "{{ $input.<key> }}" tokens (and
// the bare "{{ $input }}" token) with the string form of values drawn from
// input. Unknown placeholders are left untouched.
func Interpolate(template string, input Value) string {
	out := template

	if input.IsObject() {
		for _, key := range input.Keys() {
			field, _ := input.Get(key)
			token := "{{ $input." + key + " }}"
			out = strings.ReplaceAll(out, token, field.RawString())
		}
	}

	out = strings.ReplaceAll(out, "{{ $input }}", input.RawString())
	return out
}
