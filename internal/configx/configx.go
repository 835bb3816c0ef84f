// Package configx overlays configuration sources onto an already defaulted
// config struct. Fields are addressed by their mapstructure tag.
package configx

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadFile decodes the file at path into target, a pointer to a struct with
// mapstructure tags. Keys missing from the file keep their current values.
// The format (json, yaml, toml, ...) follows the file extension.
func LoadFile(path string, target any) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadEnv overlays PREFIX_KEY environment variables onto target, where KEY is
// the upper-cased mapstructure tag of a field. Unset variables leave the field
// untouched.
func LoadEnv(prefix string, target any) error {
	v := viper.New()
	for _, key := range Keys(target) {
		if err := v.BindEnv(key, prefix+"_"+strings.ToUpper(key)); err != nil {
			return err
		}
	}
	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("decode environment: %w", err)
	}
	return nil
}

// Keys lists the mapstructure tags of the struct target points to.
func Keys(target any) []string {
	t := reflect.TypeOf(target)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("mapstructure")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		keys = append(keys, name)
	}
	return keys
}
