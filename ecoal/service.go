// Package ecoal reads and writes eCoal furnace controller registers
// through the controller's CGI endpoints.
package ecoal

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"github.com/adamwoolhether/ecoalbridge/client"
)

const defaultBatchSize = 5

// Fetcher performs one legacy GET. *client.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts ...client.FetchOption) (*client.Response, error)
}

// Config addresses one controller.
type Config struct {
	Host     string
	Username string
	Password string
}

// Service talks to a single controller. It is safe for concurrent use
// as long as the Fetcher is.
type Service struct {
	fetcher   Fetcher
	host      string
	auth      client.FetchOption
	registers []string
	batchSize int
	logger    *slog.Logger
}

// Option configures a [Service].
type Option func(*Service)

// WithLogger sets the logger used for set and hardware messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRegisters replaces [PolledRegisters] as the set read by
// [Service.FetchRegisters].
func WithRegisters(ids ...string) Option {
	return func(s *Service) {
		s.registers = slices.Clone(ids)
	}
}

// WithBatchSize sets how many register ids go into one request.
// The controller truncates long query strings; the default is 5.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// New returns a Service using f for every request.
func New(f Fetcher, cfg Config, opts ...Option) *Service {
	s := &Service{
		fetcher:   f,
		host:      cfg.Host,
		auth:      client.WithBasicAuth(cfg.Username, cfg.Password),
		registers: PolledRegisters,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Host is the controller address requests are sent to.
func (s *Service) Host() string {
	return s.host
}

// FetchRegisters reads every configured register, batchSize ids per
// request, and returns them merged in request order. A failing batch
// fails the whole read.
func (s *Service) FetchRegisters(ctx context.Context) (Registers, error) {
	all := make(Registers, 0, len(s.registers))

	for batch := range slices.Chunk(s.registers, s.batchSize) {
		query := "device=0&" + strings.Join(batch, "&")

		resp, err := s.get(ctx, "getregister.cgi", query)
		if err != nil {
			return nil, fmt.Errorf("registers %s: %w", strings.Join(batch, ","), err)
		}

		reply, err := client.Decode[registerReply](resp)
		if err != nil {
			return nil, fmt.Errorf("registers %s: %w", strings.Join(batch, ","), err)
		}

		all = append(all, reply.Cmd.Device.Reg...)
	}

	return all, nil
}

// SetRegister writes value to parameter.
func (s *Service) SetRegister(ctx context.Context, parameter, value string) error {
	query := "device=0&" + url.QueryEscape(parameter) + "=" + url.QueryEscape(value)

	if _, err := s.get(ctx, "setregister.cgi", query); err != nil {
		return fmt.Errorf("set %s=%s: %w", parameter, value, err)
	}

	s.logger.Info("register set", "parameter", parameter, "value", value)

	return nil
}

// SetTemperature range checks value against the control uniqueID and
// writes it to the control's register.
func (s *Service) SetTemperature(ctx context.Context, uniqueID string, value float64) error {
	c, err := ValidateSetpoint(uniqueID, value)
	if err != nil {
		return err
	}

	return s.SetRegister(ctx, c.SetID, formatValue(value))
}

// SetAutoMode switches automatic mode on or off.
func (s *Service) SetAutoMode(ctx context.Context, on bool) error {
	v := "0"
	if on {
		v = "1"
	}

	return s.SetRegister(ctx, AutoModeRegister, v)
}

// HardwareInfo reads the controller identification from info.cgi.
func (s *Service) HardwareInfo(ctx context.Context) (Hardware, error) {
	resp, err := s.get(ctx, "info.cgi", "")
	if err != nil {
		return Hardware{}, fmt.Errorf("hardware info: %w", err)
	}

	reply, err := client.Decode[infoReply](resp)
	if err != nil {
		return Hardware{}, fmt.Errorf("hardware info: %w", err)
	}

	return reply.Cmd.Hardware, nil
}

// CheckHardware reads the hardware info and fails with
// [ErrUnsupportedHardware] unless the controller is a supported revision.
func (s *Service) CheckHardware(ctx context.Context) (Hardware, error) {
	hw, err := s.HardwareInfo(ctx)
	if err != nil {
		return Hardware{}, err
	}

	if hw.HardwareVersion != SupportedHardwareVersion {
		return hw, fmt.Errorf("%w: %q, supported version: %s", ErrUnsupportedHardware, hw.HardwareVersion, SupportedHardwareVersion)
	}

	s.logger.Info("connected to controller", "hardware_version", hw.HardwareVersion, "software_version", hw.SoftwareVersion)

	return hw, nil
}

// get fetches path on the controller and rejects non-2xx replies.
func (s *Service) get(ctx context.Context, path, query string) (*client.Response, error) {
	u := "http://" + s.host + "/" + path
	if query != "" {
		u += "?" + query
	}

	resp, err := s.fetcher.Fetch(ctx, u, s.auth)
	if err != nil {
		return nil, err
	}

	if err := resp.ExpectOK(); err != nil {
		return nil, err
	}

	return resp, nil
}
