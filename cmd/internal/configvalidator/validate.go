package configvalidator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// ErrUnknownField returns when an unknown field appears in the config.
var ErrUnknownField = errors.New("unknown field")

// CheckForUnknownFields validates the config map against the schema struct.
// Keys are matched with `mapstructure` tags of the schema fields, or field
// names if the tag is missing. Nested maps are checked against nested
// structs. Fields of other kinds accept any value except maps.
func CheckForUnknownFields(configMap map[string]any, schema any) error {
	return checkForUnknownFields(configMap, reflect.TypeOf(schema), "")
}

func checkForUnknownFields(configMap map[string]any, t reflect.Type, currentPath string) error {
	fields := getFieldsFromStruct(t)

	keys := make([]string, 0, len(configMap))
	for k := range configMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fullPath := key
		if currentPath != "" {
			fullPath = currentPath + "." + key
		}

		ft, ok := fields[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, fullPath)
		}

		nested, isMap := configMap[key].(map[string]any)
		isStruct := ft.Kind() == reflect.Struct

		switch {
		case isMap && isStruct:
			err := checkForUnknownFields(nested, ft, fullPath)
			if err != nil {
				return err
			}
		case isMap != isStruct:
			return fmt.Errorf("%w: %s", ErrUnknownField, fullPath)
		}
	}

	return nil
}

func getFieldsFromStruct(t reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type, t.NumField())
	for i := range t.NumField() {
		field := t.Field(i)
		name := field.Name
		if tag := field.Tag.Get("mapstructure"); tag != "" {
			name = tag
		}
		fields[name] = field.Type
	}
	return fields
}
