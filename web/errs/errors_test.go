package errs_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/ecoalbridge/web/errs"
)

var errDevice = errors.New("controller unreachable")

func TestNew(t *testing.T) {
	err := errs.New(http.StatusBadGateway, errDevice)

	if err.Code != http.StatusBadGateway {
		t.Fatalf("Code = %d, want %d", err.Code, http.StatusBadGateway)
	}
	if err.Message != errDevice.Error() {
		t.Fatalf("Message = %q, want %q", err.Message, errDevice.Error())
	}
	if err.IsInternal() {
		t.Fatal("New should not be internal")
	}
	if !strings.Contains(err.FileName, "errors_test.go") {
		t.Fatalf("FileName = %q, want the caller's file", err.FileName)
	}
	if !errors.Is(err, errDevice) {
		t.Fatal("cause should be reachable through Unwrap")
	}
}

func TestNewInternal(t *testing.T) {
	err := errs.NewInternal(fmt.Errorf("store: %w", errDevice))

	if err.Code != http.StatusInternalServerError {
		t.Fatalf("Code = %d, want %d", err.Code, http.StatusInternalServerError)
	}
	if !err.IsInternal() {
		t.Fatal("NewInternal should be internal")
	}
	if err.FuncName == "" {
		t.Fatal("FuncName should be populated")
	}
	if !errors.Is(err, errDevice) {
		t.Fatal("cause should be reachable through Unwrap")
	}
}

func TestError_AsType(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", errs.New(http.StatusConflict, errDevice))

	target, ok := errors.AsType[*errs.Error](wrapped)
	if !ok {
		t.Fatal("errors.AsType should find *errs.Error through wrapping")
	}
	if target.Code != http.StatusConflict {
		t.Fatalf("Code = %d, want %d", target.Code, http.StatusConflict)
	}
}

func TestError_JSON(t *testing.T) {
	data, err := json.Marshal(errs.New(http.StatusNotFound, errors.New("register not polled")))
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}

	want := `{"success":false,"code":404,"error":"register not polled"}`
	if string(data) != want {
		t.Fatalf("JSON = %s, want %s", data, want)
	}
}

func TestFieldErrors(t *testing.T) {
	err := fmt.Errorf("decode: %w", errs.NewFieldsError("value", errors.New("This field is required")))

	fe := errs.GetFieldErrors(err)
	if fe == nil {
		t.Fatal("expected FieldErrors in chain")
	}

	want := map[string]string{"value": "This field is required"}
	if diff := cmp.Diff(want, fe.Fields()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	if got := fe.Error(); got != `[{"field":"value","error":"This field is required"}]` {
		t.Errorf("Error() = %s", got)
	}

	data, jerr := json.Marshal(fe)
	if jerr != nil {
		t.Fatalf("json.Marshal: %v", jerr)
	}
	wantJSON := `{"success":false,"code":422,"error":"validation failed","fields":[{"field":"value","error":"This field is required"}]}`
	if string(data) != wantJSON {
		t.Errorf("JSON = %s, want %s", data, wantJSON)
	}
}

func TestGetFieldErrors_None(t *testing.T) {
	if fe := errs.GetFieldErrors(errDevice); fe != nil {
		t.Fatalf("GetFieldErrors = %v, want nil", fe)
	}
}
