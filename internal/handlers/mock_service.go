package handlers

import (
	"context"

	"jacuzzi_controller/internal/config"
	"jacuzzi_controller/internal/models"
	"jacuzzi_controller/internal/service"
)

// ---- Service mocks shared by the handler tests ----

type mockSafety struct {
	err     error
	calls   int
	lastDev string
}

func (m *mockSafety) HandleTelemetry(ctx context.Context, deviceID string) error {
	m.calls++
	m.lastDev = deviceID
	return m.err
}

type mockCommands struct {
	reply      service.CommandReply
	err        error
	calls      int
	lastParams service.CommandParams
}

func (m *mockCommands) Dispatch(ctx context.Context, p service.CommandParams) (service.CommandReply, error) {
	m.calls++
	m.lastParams = p
	return m.reply, m.err
}

type mockMonitoring struct {
	status service.DeviceStatus
	err    error
}

func (m *mockMonitoring) Status(ctx context.Context, deviceID string) (service.DeviceStatus, error) {
	return m.status, m.err
}

type mockEventLog struct {
	resp       []models.ControlEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ControlEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

func newTestHandler(safety *mockSafety, commands *mockCommands, mon *mockMonitoring, logs *mockEventLog) *Handler {
	if safety == nil {
		safety = &mockSafety{}
	}
	if commands == nil {
		commands = &mockCommands{}
	}
	if mon == nil {
		mon = &mockMonitoring{}
	}
	if logs == nil {
		logs = &mockEventLog{}
	}
	svc := &service.Service{
		Safety:     safety,
		Commands:   commands,
		Monitoring: mon,
		EventLog:   logs,
	}
	cfg := &config.Config{Golioth: config.Golioth{DefaultDevice: "default-dev"}}
	return NewHandler(svc, cfg, nil)
}
