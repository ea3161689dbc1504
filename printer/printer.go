// Package printer renders receipts and ships them to a thermal printer.
// A missing or failing printer never fails the sale: callers get a mock result.
package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"cafe-pos-api/config"
)

// Sink is where rendered receipt bytes go.
type Sink interface {
	Name() string
	Write(ctx context.Context, data []byte) error
	// Check reports whether the device is reachable right now.
	Check(ctx context.Context) error
}

type Result struct {
	Success bool   `json:"success"`
	Printed bool   `json:"printed"`
	Mock    bool   `json:"mock"`
	Sink    string `json:"sink,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Bytes   int    `json:"bytes,omitempty"`
}

type Status struct {
	Enabled   bool   `json:"enabled"`
	TestMode  bool   `json:"testMode"`
	Type      string `json:"type"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

var ErrUnavailable = errors.New("printer unavailable")

type Service struct {
	sink     Sink
	enabled  bool
	testMode bool
	width    int
	business config.Business
	log      *logrus.Entry
}

// New picks the sink from cfg.Type. An unknown type leaves the service in mock mode.
func New(cfg config.Printer, biz config.Business, log *logrus.Logger) *Service {
	s := &Service{
		enabled:  cfg.Enabled,
		testMode: cfg.TestMode,
		width:    cfg.Width,
		business: biz,
		log:      log.WithField("component", "printer"),
	}
	switch cfg.Type {
	case "file":
		s.sink = FileSink{Path: cfg.FilePath}
	case "network":
		s.sink = NetworkSink{Addr: cfg.NetworkAddr, Timeout: 5 * time.Second}
	case "usb":
		s.sink = DeviceSink{Path: cfg.USBDevice}
	default:
		s.log.WithField("type", cfg.Type).Warn("unknown printer type, running in mock mode")
		s.enabled = false
	}
	return s
}

// NewWithSink is used when the sink is built elsewhere.
func NewWithSink(sink Sink, width int, biz config.Business, log *logrus.Logger) *Service {
	return &Service{sink: sink, enabled: true, width: width, business: biz, log: log.WithField("component", "printer")}
}

func mock(reason string) Result {
	return Result{Success: true, Printed: false, Mock: true, Reason: reason}
}

// Print renders and sends one receipt.
func (s *Service) Print(ctx context.Context, r Receipt, reprint bool) Result {
	if !s.enabled || s.sink == nil {
		return mock("printer disabled")
	}
	data := Render(r, s.business, s.width, reprint)
	if s.testMode {
		return Result{Success: true, Mock: true, Sink: s.sink.Name(), Reason: "test mode", Bytes: len(data)}
	}
	if err := s.sink.Write(ctx, data); err != nil {
		s.log.WithError(err).WithField("order", r.OrderNumber).Warn("receipt not printed")
		res := mock(err.Error())
		res.Sink = s.sink.Name()
		return res
	}
	return Result{Success: true, Printed: true, Sink: s.sink.Name(), Bytes: len(data)}
}

// Test prints a test page. Unlike Print it reports device failures.
func (s *Service) Test(ctx context.Context) (Result, error) {
	if !s.enabled || s.sink == nil {
		return mock("printer disabled"), nil
	}
	data := TestPage(s.business, s.width, time.Now())
	if s.testMode {
		return Result{Success: true, Mock: true, Sink: s.sink.Name(), Reason: "test mode", Bytes: len(data)}, nil
	}
	if err := s.sink.Write(ctx, data); err != nil {
		return Result{Sink: s.sink.Name(), Reason: err.Error()}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return Result{Success: true, Printed: true, Sink: s.sink.Name(), Bytes: len(data)}, nil
}

func (s *Service) Status(ctx context.Context) Status {
	st := Status{Enabled: s.enabled, TestMode: s.testMode}
	if s.sink == nil {
		st.Type = "mock"
		return st
	}
	st.Type = s.sink.Name()
	if !s.enabled {
		return st
	}
	if err := s.sink.Check(ctx); err != nil {
		st.Error = err.Error()
		return st
	}
	st.Available = true
	return st
}

// FileSink appends receipts to a file, creating its directory.
type FileSink struct {
	Path string
}

func (f FileSink) Name() string { return "file" }

func (f FileSink) Write(_ context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	fh, err := os.OpenFile(f.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func (f FileSink) Check(context.Context) error {
	return os.MkdirAll(filepath.Dir(f.Path), 0o755)
}

// NetworkSink speaks raw TCP, usually port 9100.
type NetworkSink struct {
	Addr    string
	Timeout time.Duration
}

func (n NetworkSink) Name() string { return "network" }

func (n NetworkSink) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: n.Timeout}
	return d.DialContext(ctx, "tcp", n.Addr)
}

func (n NetworkSink) Write(ctx context.Context, data []byte) error {
	conn, err := n.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.SetWriteDeadline(time.Now().Add(n.Timeout)); err != nil {
		return err
	}
	_, err = conn.Write(data)
	return err
}

func (n NetworkSink) Check(ctx context.Context) error {
	conn, err := n.dial(ctx)
	if err != nil {
		return err
	}
	return conn.Close()
}

// DeviceSink writes to a character device such as /dev/usb/lp0.
type DeviceSink struct {
	Path string
}

func (d DeviceSink) Name() string { return "usb" }

func (d DeviceSink) Write(_ context.Context, data []byte) error {
	fh, err := os.OpenFile(d.Path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func (d DeviceSink) Check(context.Context) error {
	_, err := os.Stat(d.Path)
	return err
}
