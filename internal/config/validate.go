package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	logx "repeatbot/pkg/logx"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// single whitespace-free word
	_ = v.RegisterValidation("cmdword", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "" && !strings.ContainsFunc(s, unicode.IsSpace)
	})
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		return logx.ValidLevel(fl.Field().String())
	})
	return v
}

// Validate checks cfg after defaults and environment overrides are applied.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := validate.Struct(cfg); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) && len(ves) > 0 {
			fe := ves[0]
			return fmt.Errorf("invalid config: %s: failed %q (value %q)", fieldPath(fe.Namespace()), fe.Tag(), fmt.Sprint(fe.Value()))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, _, err := cfg.AuditStorage(); err != nil {
		return err
	}
	return nil
}

// fieldPath drops the root type name: "Config.store.test_path" -> "store.test_path".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
