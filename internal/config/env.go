package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
)

// applyEnv overlays every field tagged `env:"NAME"` with $NAME when that
// variable is set, descending into the config sections. It returns the names
// of the variables it used.
func applyEnv(cfg *Config) ([]string, error) {
	var applied []string
	err := walkEnv(reflect.ValueOf(cfg).Elem(), &applied)
	return applied, err
}

func walkEnv(section reflect.Value, applied *[]string) error {
	for _, sf := range reflect.VisibleFields(section.Type()) {
		field := section.FieldByIndex(sf.Index)
		if sf.Type.Kind() == reflect.Struct {
			if err := walkEnv(field, applied); err != nil {
				return err
			}
			continue
		}

		name, ok := sf.Tag.Lookup("env")
		if !ok {
			continue
		}
		raw, set := os.LookupEnv(name)
		if !set {
			continue
		}
		if err := assign(field, raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*applied = append(*applied, name)
	}
	return nil
}

// assign parses raw into the string, int or bool field.
func assign(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", raw)
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", raw)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}
