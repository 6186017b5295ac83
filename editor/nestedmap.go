// Package editor provides the row join engine and option list builders that
// sit between an edit request and the query layer.
package editor

import (
	"fmt"
	"strings"
)

// ReadProp reads a dotted path out of a nested map. The second return is
// false when any segment of the path is missing.
func ReadProp(name string, data map[string]interface{}) (interface{}, bool) {
	segments := strings.Split(name, ".")
	current := data
	for i, seg := range segments {
		v, ok := current[seg]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return v, true
		}
		next, ok := v.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// PropExists reports whether a dotted path resolves in a nested map.
func PropExists(name string, data map[string]interface{}) bool {
	_, ok := ReadProp(name, data)
	return ok
}

// WriteProp writes a value at a dotted path, creating intermediate maps as
// needed. It refuses to shadow an existing non-map value on the way down,
// and refuses to write the same leaf twice, so conflicting field
// definitions surface as errors instead of silent overwrites.
func WriteProp(data map[string]interface{}, name string, value interface{}) error {
	segments := strings.Split(name, ".")
	current := data
	for _, seg := range segments[:len(segments)-1] {
		v, ok := current[seg]
		if !ok {
			next := make(map[string]interface{})
			current[seg] = next
			current = next
			continue
		}
		next, ok := v.(map[string]interface{})
		if !ok {
			return fmt.Errorf("editor: path %q would shadow a value at %q", name, seg)
		}
		current = next
	}
	leaf := segments[len(segments)-1]
	if _, exists := current[leaf]; exists {
		return fmt.Errorf("editor: duplicate write to %q", name)
	}
	current[leaf] = value
	return nil
}
