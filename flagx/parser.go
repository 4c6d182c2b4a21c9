// Package flagx binds cobra flags to request structs.
//
//	type signRequest struct {
//	    Type    string `flag:"type,t" usage:"token type" default:"access"`
//	    Subject string `flag:"subject,s" usage:"sub claim" required:"true"`
//	}
//
//	var req signRequest
//	_ = flagx.BindFlags(cmd, &req)     // while building the command
//	err := flagx.ParseFlags(cmd, &req) // inside RunE
package flagx

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var durationType = reflect.TypeOf(time.Duration(0))

type flagTag struct {
	name  string
	short string
}

func parseTag(field reflect.StructField) (flagTag, bool) {
	raw := field.Tag.Get("flag")
	if raw == "" {
		return flagTag{}, false
	}
	parts := strings.SplitN(raw, ",", 2)
	tag := flagTag{name: parts[0]}
	if len(parts) > 1 {
		tag.short = parts[1]
	}
	return tag, true
}

func structValue(target interface{}) (reflect.Value, error) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("target must be a pointer to struct")
	}
	return v.Elem(), nil
}

// BindFlags registers one local flag per tagged field.
// Tags: flag (name[,short]), usage, default, required.
func BindFlags(cmd *cobra.Command, target interface{}) error {
	v, err := structValue(target)
	if err != nil {
		return err
	}
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, ok := parseTag(field)
		if !ok {
			continue
		}
		if err := registerFlag(cmd, field, tag, field.Tag.Get("usage"), field.Tag.Get("default")); err != nil {
			return fmt.Errorf("bind field %s: %w", field.Name, err)
		}
		if field.Tag.Get("required") == "true" {
			if err := cmd.MarkFlagRequired(tag.name); err != nil {
				return err
			}
		}
	}
	return nil
}

func registerFlag(cmd *cobra.Command, field reflect.StructField, tag flagTag, usage, def string) error {
	fs := cmd.Flags()

	if field.Type == durationType {
		d := time.Duration(0)
		if def != "" {
			parsed, err := time.ParseDuration(def)
			if err != nil {
				return fmt.Errorf("default %q: %w", def, err)
			}
			d = parsed
		}
		fs.DurationP(tag.name, tag.short, d, usage)
		return nil
	}

	switch field.Type.Kind() {
	case reflect.String:
		fs.StringP(tag.name, tag.short, def, usage)
	case reflect.Int:
		n := 0
		if def != "" {
			parsed, err := strconv.Atoi(def)
			if err != nil {
				return fmt.Errorf("default %q: %w", def, err)
			}
			n = parsed
		}
		fs.IntP(tag.name, tag.short, n, usage)
	case reflect.Int64:
		var n int64
		if def != "" {
			parsed, err := strconv.ParseInt(def, 10, 64)
			if err != nil {
				return fmt.Errorf("default %q: %w", def, err)
			}
			n = parsed
		}
		fs.Int64P(tag.name, tag.short, n, usage)
	case reflect.Bool:
		b := false
		if def != "" {
			parsed, err := strconv.ParseBool(def)
			if err != nil {
				return fmt.Errorf("default %q: %w", def, err)
			}
			b = parsed
		}
		fs.BoolP(tag.name, tag.short, b, usage)
	case reflect.Slice:
		if field.Type.Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element type: %s", field.Type.Elem().Kind())
		}
		var vals []string
		if def != "" {
			vals = strings.Split(def, ",")
		}
		fs.StringSliceP(tag.name, tag.short, vals, usage)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Type.Kind())
	}
	return nil
}

// ParseFlags copies flag values into the tagged fields of target
func ParseFlags(cmd *cobra.Command, target interface{}) error {
	v, err := structValue(target)
	if err != nil {
		return err
	}
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		tag, ok := parseTag(t.Field(i))
		if !ok {
			continue
		}
		if err := setFieldValue(cmd, field, tag.name); err != nil {
			return fmt.Errorf("parse field %s: %w", t.Field(i).Name, err)
		}
	}
	return nil
}

func setFieldValue(cmd *cobra.Command, field reflect.Value, name string) error {
	fs := cmd.Flags()

	if field.Type() == durationType {
		d, err := fs.GetDuration(name)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		s, err := fs.GetString(name)
		if err != nil {
			return err
		}
		field.SetString(s)
	case reflect.Int:
		n, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case reflect.Int64:
		n, err := fs.GetInt64(name)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element type: %s", field.Type().Elem().Kind())
		}
		vals, err := fs.GetStringSlice(name)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(vals))
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}
