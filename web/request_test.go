package web_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adamwoolhether/ecoalbridge/web"
	"github.com/adamwoolhether/ecoalbridge/web/errs"
)

func TestParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/registers/tkot_value", nil)
	r.SetPathValue("tid", "tkot_value")

	val, err := web.Param(r, "tid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "tkot_value" {
		t.Fatalf("val = %q, want %q", val, "tkot_value")
	}
}

func TestParam_Missing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/registers/", nil)

	if _, err := web.Param(r, "tid"); err == nil {
		t.Fatal("expected error for missing param")
	}
}

func TestQueryBool(t *testing.T) {
	tests := map[string]struct {
		target  string
		def     bool
		want    bool
		wantErr bool
	}{
		"true":            {target: "/api/data?raw=true", want: true},
		"numeric":         {target: "/api/data?raw=0", def: true, want: false},
		"missing default": {target: "/api/data", def: true, want: true},
		"invalid":         {target: "/api/data?raw=maybe", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tc.target, nil)

			got, err := web.QueryBool(r, "raw", tc.def)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

type setpoint struct {
	Value *float64 `json:"value" validate:"required"`
}

func TestDecode(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"value":0}`))

	var p setpoint
	if err := web.Decode(r, &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Value == nil || *p.Value != 0 {
		t.Fatalf("Value = %v, want 0", p.Value)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad json":      `{bad json`,
		"unknown field": `{"value":50,"extra":true}`,
		"too large":     `{"value":` + strings.Repeat("1", 8<<10) + `}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

			var p setpoint
			if err := web.Decode(r, &p); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecode_ValidationFailure(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))

	var p setpoint
	err := web.Decode(r, &p)

	fe := errs.GetFieldErrors(err)
	if fe == nil {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if got := fe.Fields()["value"]; got != "This field is required" {
		t.Fatalf("value error = %q", got)
	}
}
