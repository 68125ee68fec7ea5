package ecoal_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/ecoalbridge/client"
	"github.com/adamwoolhether/ecoalbridge/ecoal"
)

// controller fakes the CGI endpoints of a furnace controller.
type controller struct {
	mu       sync.Mutex
	queries  []string
	sets     []string
	hwVer    string
	failPath string
	body     string
}

func newController(t *testing.T) (*controller, *httptest.Server) {
	t.Helper()

	c := &controller{hwVer: "3.5"}
	srv := httptest.NewServer(c)
	t.Cleanup(srv.Close)

	return c, srv
}

func (c *controller) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if user, pass, ok := r.BasicAuth(); !ok || user != "admin" || pass != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if r.URL.Path == c.failPath {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if c.body != "" {
		fmt.Fprint(w, c.body)
		return
	}

	switch r.URL.Path {
	case "/getregister.cgi":
		c.queries = append(c.queries, r.URL.RawQuery)

		var b strings.Builder
		b.WriteString(`<cmd status="ok"><device id="0">`)
		for i, id := range strings.Split(r.URL.RawQuery, "&")[1:] {
			fmt.Fprintf(&b, `<reg vid="%d" tid="%s" v="%d.5"/>`, i, id, len(id))
		}
		b.WriteString(`</device></cmd>`)
		fmt.Fprint(w, b.String())

	case "/setregister.cgi":
		c.sets = append(c.sets, r.URL.RawQuery)
		fmt.Fprint(w, `<cmd status="ok"/>`)

	case "/info.cgi":
		fmt.Fprintf(w, `<cmd status="ok"><hardware><type>eCoal</type><hardwareversion>%s</hardwareversion><softwareversion>2.1.7</softwareversion></hardware></cmd>`, c.hwVer)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newService(t *testing.T, srv *httptest.Server, opts ...ecoal.Option) *ecoal.Service {
	t.Helper()

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parsing server url: %v", err)
	}

	c, err := client.Build()
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	return ecoal.New(c, ecoal.Config{Host: u.Host, Username: "admin", Password: "secret"}, opts...)
}

func TestService_FetchRegisters(t *testing.T) {
	ctrl, srv := newController(t)
	ids := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff"}
	svc := newService(t, srv, ecoal.WithRegisters(ids...))

	regs, err := svc.FetchRegisters(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantQueries := []string{
		"device=0&a&bb&ccc&dddd&eeeee",
		"device=0&ffffff",
	}
	if diff := cmp.Diff(wantQueries, ctrl.queries); diff != "" {
		t.Errorf("queries mismatch (-want +got):\n%s", diff)
	}

	want := ecoal.Registers{
		{VID: "0", TID: "a", V: "1.5"},
		{VID: "1", TID: "bb", V: "2.5"},
		{VID: "2", TID: "ccc", V: "3.5"},
		{VID: "3", TID: "dddd", V: "4.5"},
		{VID: "4", TID: "eeeee", V: "5.5"},
		{VID: "0", TID: "ffffff", V: "6.5"},
	}
	if diff := cmp.Diff(want, regs); diff != "" {
		t.Errorf("registers mismatch (-want +got):\n%s", diff)
	}
}

func TestService_FetchRegisters_Defaults(t *testing.T) {
	ctrl, srv := newController(t)
	svc := newService(t, srv)

	regs, err := svc.FetchRegisters(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(regs) != len(ecoal.PolledRegisters) {
		t.Errorf("got %d registers, want %d", len(regs), len(ecoal.PolledRegisters))
	}
	if want := (len(ecoal.PolledRegisters) + 4) / 5; len(ctrl.queries) != want {
		t.Errorf("got %d requests, want %d", len(ctrl.queries), want)
	}
}

func TestService_FetchRegisters_BatchSize(t *testing.T) {
	ctrl, srv := newController(t)
	svc := newService(t, srv, ecoal.WithRegisters("a", "b", "c"), ecoal.WithBatchSize(2))

	if _, err := svc.FetchRegisters(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"device=0&a&b", "device=0&c"}, ctrl.queries); diff != "" {
		t.Errorf("queries mismatch (-want +got):\n%s", diff)
	}
}

func TestService_FetchRegisters_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		ctrl, srv := newController(t)
		ctrl.failPath = "/getregister.cgi"
		svc := newService(t, srv)

		_, err := svc.FetchRegisters(t.Context())
		if _, ok := errors.AsType[*client.UnexpectedStatusError](err); !ok {
			t.Fatalf("expected *client.UnexpectedStatusError, got: %v", err)
		}
	})

	t.Run("bad xml", func(t *testing.T) {
		ctrl, srv := newController(t)
		ctrl.body = "<cmd><device>"
		svc := newService(t, srv)

		_, err := svc.FetchRegisters(t.Context())
		if !errors.Is(err, client.ErrBodyParse) {
			t.Fatalf("expected ErrBodyParse, got: %v", err)
		}
	})

	t.Run("wrong credentials", func(t *testing.T) {
		_, srv := newController(t)
		u, _ := url.Parse(srv.URL)
		c, err := client.Build()
		if err != nil {
			t.Fatalf("building client: %v", err)
		}
		svc := ecoal.New(c, ecoal.Config{Host: u.Host, Username: "root", Password: "root"})

		_, err = svc.FetchRegisters(t.Context())
		if !errors.Is(err, client.ErrAuthFailure) {
			t.Fatalf("expected ErrAuthFailure, got: %v", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		_, srv := newController(t)
		svc := newService(t, srv)
		srv.Close()

		_, err := svc.FetchRegisters(t.Context())
		if !errors.Is(err, client.ErrConnection) {
			t.Fatalf("expected ErrConnection, got: %v", err)
		}
	})
}

func TestService_SetRegister(t *testing.T) {
	ctrl, srv := newController(t)
	svc := newService(t, srv)

	if err := svc.SetRegister(t.Context(), "kot_tzad", "60"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SetAutoMode(t.Context(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SetAutoMode(t.Context(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SetTemperature(t.Context(), "hot_water_temperature_setpoint", 52.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"device=0&kot_tzad=60",
		"device=0&tryb_auto=1",
		"device=0&tryb_auto=0",
		"device=0&cwu_tzad=52.5",
	}
	if diff := cmp.Diff(want, ctrl.sets); diff != "" {
		t.Errorf("set queries mismatch (-want +got):\n%s", diff)
	}
}

func TestService_SetRegister_Failure(t *testing.T) {
	ctrl, srv := newController(t)
	ctrl.failPath = "/setregister.cgi"
	svc := newService(t, srv)

	err := svc.SetRegister(t.Context(), "kot_tzad", "60")
	if !errors.Is(err, client.ErrUnexpectedStatusCode) {
		t.Fatalf("expected ErrUnexpectedStatusCode, got: %v", err)
	}
}

func TestService_SetTemperature_Rejected(t *testing.T) {
	ctrl, srv := newController(t)
	svc := newService(t, srv)

	tests := map[string]struct {
		id      string
		value   float64
		wantErr error
	}{
		"below min":  {id: "boiler_temperature_setpoint", value: 10, wantErr: ecoal.ErrOutOfRange},
		"above max":  {id: "room_temperature_setpoint", value: 31, wantErr: ecoal.ErrOutOfRange},
		"unknown id": {id: "sauna_setpoint", value: 80, wantErr: ecoal.ErrUnknownControl},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := svc.SetTemperature(t.Context(), tc.id, tc.value)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got: %v", tc.wantErr, err)
			}
		})
	}

	if len(ctrl.sets) != 0 {
		t.Errorf("rejected setpoints reached the device: %v", ctrl.sets)
	}
}

func TestService_CheckHardware(t *testing.T) {
	t.Run("supported", func(t *testing.T) {
		_, srv := newController(t)
		svc := newService(t, srv)

		hw, err := svc.CheckHardware(t.Context())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := ecoal.Hardware{Type: "eCoal", HardwareVersion: "3.5", SoftwareVersion: "2.1.7"}
		if diff := cmp.Diff(want, hw); diff != "" {
			t.Errorf("hardware mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		ctrl, srv := newController(t)
		ctrl.hwVer = "3.4"
		svc := newService(t, srv)

		hw, err := svc.CheckHardware(t.Context())
		if !errors.Is(err, ecoal.ErrUnsupportedHardware) {
			t.Fatalf("expected ErrUnsupportedHardware, got: %v", err)
		}
		if hw.HardwareVersion != "3.4" {
			t.Errorf("hardware version = %q, want the reported one", hw.HardwareVersion)
		}
	})
}
