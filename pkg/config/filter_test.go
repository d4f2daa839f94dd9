package config

import (
	"strings"
	"testing"
	"time"

	"github.com/corrkit/corrkit/pkg/series"
)

func TestFilterCompiler_Compile(t *testing.T) {
	fc := NewFilterCompiler()
	march30 := series.NewDate(2014, time.March, 30)
	july4 := series.NewDate(2014, time.July, 4)

	tests := []struct {
		expr  string
		date  series.Date
		value float64
		want  bool
	}{
		{"value < 0", march30, -1, true},
		{"value < 0", march30, 1, false},
		{"date.month in (6, 7, 8)", july4, 1, true},
		{"date.month in (6, 7, 8)", march30, 1, false},
		{"date.iso == '2014-03-30'", march30, 1, true},
		{"date.year == 2014 and date.day > 15", march30, 0, true},
		{"abs(value) > 10", march30, -11, true},
		{"False", march30, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := fc.Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if got := f(tt.date, tt.value); got != tt.want {
				t.Errorf("filter(%s, %v) = %v, want %v", tt.date, tt.value, got, tt.want)
			}
		})
	}

	if fc.Failures() != 0 {
		t.Errorf("Failures() = %d, want 0", fc.Failures())
	}
}

func TestFilterCompiler_CompileErrors(t *testing.T) {
	fc := NewFilterCompiler()

	for _, expr := range []string{"", "value <", "unknown > 1", "x = 1"} {
		if _, err := fc.Compile(expr); err == nil {
			t.Errorf("Compile(%q) should fail", expr)
		}
	}
}

func TestFilterCompiler_EvaluationFailure(t *testing.T) {
	fc := NewFilterCompiler()
	d := series.NewDate(2014, time.March, 30)

	nonBool, err := fc.Compile("value + 1")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if nonBool(d, 1) {
		t.Error("a non-bool result must keep the entry")
	}

	failing, err := fc.Compile("date.month / 0 > 1")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if failing(d, 1) {
		t.Error("a failing evaluation must keep the entry")
	}

	if fc.Failures() != 2 {
		t.Errorf("Failures() = %d, want 2", fc.Failures())
	}
}

func TestFilterCompiler_StepLimit(t *testing.T) {
	fc := NewFilterCompiler(WithMaxSteps(50))

	f, err := fc.Compile("len([x for x in range(100000)]) > 0")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if f(series.NewDate(2014, time.March, 30), 1) {
		t.Error("an evaluation over the step limit must keep the entry")
	}
	if fc.Failures() != 1 {
		t.Errorf("Failures() = %d, want 1", fc.Failures())
	}
}

func TestFilterCompiler_ErrorMentionsExpression(t *testing.T) {
	_, err := NewFilterCompiler().Compile("value <")
	if err == nil || !strings.Contains(err.Error(), "value <") {
		t.Errorf("error should quote the expression, got %v", err)
	}
}
