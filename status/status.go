// Package status serves the bridge's local HTTP API: the latest poll,
// bridge health and the writable controller setpoints.
package status

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/adamwoolhether/ecoalbridge/client"
	"github.com/adamwoolhether/ecoalbridge/ecoal"
	"github.com/adamwoolhether/ecoalbridge/web"
	"github.com/adamwoolhether/ecoalbridge/web/errs"
	"github.com/adamwoolhether/ecoalbridge/web/mux"
)

// Device is the controller the API writes to. *ecoal.Service satisfies it.
type Device interface {
	Host() string
	SetTemperature(ctx context.Context, uniqueID string, value float64) error
	SetAutoMode(ctx context.Context, on bool) error
}

// Config describes the bridge to API clients.
type Config struct {
	DeviceName   string
	DeviceID     string
	PollInterval time.Duration
	// Sensors defaults to ecoal.Sensors.
	Sensors []ecoal.Sensor
	// Gatherer backs GET /metrics. The route is not registered when nil.
	Gatherer prometheus.Gatherer
	// Now defaults to time.Now.
	Now func() time.Time
}

type api struct {
	store  *Store
	device Device
	cfg    Config
}

// Routes registers the status API on app.
func Routes(app *mux.App, store *Store, device Device, cfg Config) {
	if cfg.Sensors == nil {
		cfg.Sensors = ecoal.Sensors
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	a := api{store: store, device: device, cfg: cfg}

	app.Get("/health", a.health)
	app.Get("/api/status", a.status)
	app.Get("/api/data", a.data)
	app.Get("/api/registers/{tid}", a.register)
	app.Post("/api/controls/{id}", a.setControl)
	app.Post("/api/auto-mode", a.setAutoMode)

	if cfg.Gatherer != nil {
		app.HandleRaw(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
}

func (a api) health(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.RespondJSON(ctx, w, http.StatusOK, struct {
		Status string `json:"status"`
	}{
		Status: "ok",
	})
}

func (a api) status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	snap := a.store.Snapshot()

	st := SystemStatus{
		DeviceName:   a.cfg.DeviceName,
		DeviceID:     a.cfg.DeviceID,
		ECoalHost:    a.device.Host(),
		PollInterval: int(a.cfg.PollInterval.Seconds()),
		Uptime:       int(a.cfg.Now().Sub(snap.Started).Seconds()),
	}
	if !snap.UpdatedAt.IsZero() {
		st.LastPoll = &snap.UpdatedAt
	}
	if snap.Stale() && snap.LastErr != nil {
		st.LastError = snap.LastErr.Error()
	}

	return web.RespondJSON(ctx, w, http.StatusOK, st)
}

func (a api) data(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	raw, err := web.QueryBool(r, "raw", false)
	if err != nil {
		return errs.New(http.StatusBadRequest, err)
	}

	snap := a.store.Snapshot()
	resp := APIResponse{Timestamp: a.cfg.Now().UTC()}

	if snap.UpdatedAt.IsZero() {
		resp.Error = "no data polled yet"
		if snap.LastErr != nil {
			resp.Error = snap.LastErr.Error()
		}
		return web.RespondJSON(ctx, w, http.StatusServiceUnavailable, resp)
	}

	resp.Success = true
	if snap.Stale() && snap.LastErr != nil {
		resp.Error = snap.LastErr.Error()
	}

	switch {
	case raw:
		resp.Data = rawData(snap.Registers)
	default:
		resp.Data = Data{
			Sensors:  readings(a.cfg.Sensors, snap.Registers),
			Controls: controlReadings(snap.Registers),
		}
	}

	return web.RespondJSON(ctx, w, http.StatusOK, resp)
}

func (a api) register(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	tid, err := web.Param(r, "tid")
	if err != nil {
		return errs.New(http.StatusBadRequest, err)
	}

	reg, ok := a.store.Snapshot().Registers.Find(tid)
	if !ok {
		return errs.New(http.StatusNotFound, fmt.Errorf("register %q not polled", tid))
	}

	return web.RespondJSON(ctx, w, http.StatusOK, reg)
}

func (a api) setControl(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := web.Param(r, "id")
	if err != nil {
		return errs.New(http.StatusBadRequest, err)
	}

	var req SetpointRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	ctx, span := mux.AddSpan(ctx, "status.set_control",
		attribute.String("control", id),
		attribute.Float64("value", *req.Value))
	defer span.End()

	if err := a.device.SetTemperature(ctx, id, *req.Value); err != nil {
		span.RecordError(err)
		return deviceError(err)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, SetResult{
		Success: true,
		ID:      id,
		Value:   strconv.FormatFloat(*req.Value, 'f', -1, 64),
	})
}

func (a api) setAutoMode(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req AutoModeRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	ctx, span := mux.AddSpan(ctx, "status.set_auto_mode", attribute.String("state", req.State))
	defer span.End()

	if err := a.device.SetAutoMode(ctx, req.State == "ON"); err != nil {
		span.RecordError(err)
		return deviceError(err)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, SetResult{
		Success: true,
		ID:      ecoal.AutoModeRegister,
		Value:   req.State,
	})
}

// decode passes validation failures through and reports malformed bodies
// as 400.
func decode[T any](r *http.Request, val *T) error {
	err := web.Decode(r, val)
	if err == nil {
		return nil
	}

	if _, ok := errors.AsType[errs.FieldErrors](err); ok {
		return err
	}

	return errs.New(http.StatusBadRequest, err)
}

// deviceError maps a failed write onto the status the API answers with.
func deviceError(err error) error {
	switch {
	case errors.Is(err, ecoal.ErrUnknownControl):
		return errs.New(http.StatusNotFound, err)
	case errors.Is(err, ecoal.ErrOutOfRange):
		return errs.New(http.StatusBadRequest, err)
	case client.KindOf(err) == client.KindTimeout:
		return errs.New(http.StatusGatewayTimeout, err)
	case client.KindOf(err) != 0, errors.Is(err, client.ErrUnexpectedStatusCode):
		return errs.New(http.StatusBadGateway, err)
	}

	return err
}
