package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator that reports fields by their json name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validatePipeline runs struct validation, the cross-field rules and filter
// compilation.
func validatePipeline(v *validator.Validate, filters *FilterCompiler, p *PipelineConfig) []ValidationError {
	var out []ValidationError

	if err := v.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				out = append(out, ValidationError{
					Path:     trimNamespace(fe.Namespace()),
					Message:  describeFieldError(fe),
					Severity: "error",
				})
			}
		} else {
			out = append(out, ValidationError{Message: err.Error(), Severity: "error"})
		}
	}

	for _, side := range []string{"x", "y"} {
		s, _ := p.Source(side)
		out = append(out, validateSource(side, s, filters)...)
	}
	return out
}

func validateSource(side string, s *SourceConfig, filters *FilterCompiler) []ValidationError {
	var out []ValidationError
	add := func(field, msg string) {
		out = append(out, ValidationError{Path: side + "." + field, Message: msg, Severity: "error"})
	}

	switch {
	case s.Path == "" && s.URL == "":
		add("path", "one of path or url is required")
	case s.Path != "" && s.URL != "":
		add("url", "path and url are mutually exclusive")
	}

	switch s.Format {
	case FormatCSV:
		if s.CSV == nil {
			add("csv", "csv options are required for format csv")
		}
		if s.JSON != nil {
			add("json", "json options are not allowed for format csv")
		}
	case FormatJSON:
		if s.JSON == nil {
			add("json", "json options are required for format json")
		}
		if s.CSV != nil {
			add("csv", "csv options are not allowed for format json")
		}
	}

	if s.Filter != "" && filters != nil {
		if _, err := filters.Compile(s.Filter); err != nil {
			add("filter", err.Error())
		}
	}
	return out
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "url":
		return fmt.Sprintf("must be a URL, got %q", fmt.Sprint(fe.Value()))
	case "len":
		return fmt.Sprintf("must be exactly %s character long", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// trimNamespace drops the root struct name from a validator namespace.
func trimNamespace(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// resolvePaths makes relative source paths relative to base.
func resolvePaths(p *PipelineConfig, base string) {
	for _, s := range []*SourceConfig{&p.X, &p.Y} {
		if s.Path != "" && !filepath.IsAbs(s.Path) {
			s.Path = filepath.Join(base, s.Path)
		}
	}
}

// applyDefaults fills the values the CUE schema would default.
func applyDefaults(p *PipelineConfig) {
	for _, s := range []*SourceConfig{&p.X, &p.Y} {
		if s.Merge == "" {
			s.Merge = "sum"
		}
		if s.Cache == nil {
			enabled := true
			s.Cache = &enabled
		}
		if s.CSV != nil && s.CSV.Delimiter == "" {
			s.CSV.Delimiter = ","
		}
	}
}
