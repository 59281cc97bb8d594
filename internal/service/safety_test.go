package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"jacuzzi_controller/internal/config"
	"jacuzzi_controller/internal/logger"
	"jacuzzi_controller/internal/models"
)

// ---- Repo fakes shared by the service tests ----

type setCall struct {
	DeviceID string
	Path     string
	Value    string
}

type fakeCloud struct {
	devices  []models.Device
	listErr  error
	state    models.DeviceState
	stateErr error
	setErr   error

	sets    []setCall
	deletes []string
}

func (f *fakeCloud) ListDevices(ctx context.Context) ([]models.Device, error) {
	return f.devices, f.listErr
}
func (f *fakeCloud) GetState(ctx context.Context, deviceID string) (models.DeviceState, error) {
	return f.state, f.stateErr
}
func (f *fakeCloud) SetState(ctx context.Context, deviceID, path, value string) error {
	f.sets = append(f.sets, setCall{DeviceID: deviceID, Path: path, Value: value})
	return f.setErr
}
func (f *fakeCloud) DeleteState(ctx context.Context, deviceID, path string) error {
	f.deletes = append(f.deletes, path)
	return nil
}

type fakeEventRepo struct {
	appendErr error
	events    []models.ControlEvent
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.ControlEvent) error {
	f.events = append(f.events, e)
	return f.appendErr
}
func (f *fakeEventRepo) List(ctx context.Context, from, to time.Time, typ, deviceID string) ([]models.ControlEvent, error) {
	return f.events, nil
}

func testTimers() config.Timers {
	return config.Timers{
		BubblesGrace:  15 * time.Second,
		UsersShutdown: 30 * time.Minute,
		CleanShutdown: 30 * time.Minute,
	}
}

func newSafetyForTest(cloud *fakeCloud, events *fakeEventRepo) *SafetyService {
	return NewSafetyService(cloud, events, testTimers(), newDeviceLocks(), logger.Get(logger.ErrorLevel))
}

// findSet returns the calls against one path, in order.
func findSets(calls []setCall, path string) []setCall {
	var out []setCall
	for _, c := range calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// parseMillisValue decodes a serialized bubbles_shutdown write.
func parseMillisValue(t *testing.T, v string) time.Time {
	t.Helper()
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		t.Fatalf("timer value %q is not decimal millis: %v", v, err)
	}
	return time.UnixMilli(ms)
}

func assertWithinTimeWindow(t *testing.T, ts, start, end time.Time) {
	t.Helper()
	if ts.Before(start) || ts.After(end) {
		t.Fatalf("time %v not within window [%v, %v]", ts, start, end)
	}
}

// ---- Tests ----

func TestSafety_SkipsCycleWhenStateUnavailable(t *testing.T) {
	cloud := &fakeCloud{stateErr: errors.New("cloud down")}
	s := newSafetyForTest(cloud, &fakeEventRepo{})

	if err := s.HandleTelemetry(context.Background(), "dev1"); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if len(cloud.sets) != 0 || len(cloud.deletes) != 0 {
		t.Fatalf("expected no mutations, got sets=%v deletes=%v", cloud.sets, cloud.deletes)
	}
}

func TestSafety_OverTempForcesBothActuatorsOff(t *testing.T) {
	for _, temp := range []float64{41.0, 45.5} {
		cloud := &fakeCloud{state: models.DeviceState{
			Active: true, Bubbles: true, Heater: true, Temp: temp,
		}}
		events := &fakeEventRepo{}
		s := newSafetyForTest(cloud, events)

		if err := s.HandleTelemetry(context.Background(), "dev1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		heaterSets := findSets(cloud.sets, models.PathHeater)
		bubbleSets := findSets(cloud.sets, models.PathBubbles)
		if len(heaterSets) != 1 || heaterSets[0].Value != "false" {
			t.Fatalf("temp=%v: expected heater=false write, got %v", temp, heaterSets)
		}
		if len(bubbleSets) != 1 || bubbleSets[0].Value != "false" {
			t.Fatalf("temp=%v: expected bubbles=false write, got %v", temp, bubbleSets)
		}
		if len(events.events) != 1 || events.events[0].Type != models.EventEmergency {
			t.Fatalf("expected one EMERGENCY event, got %#v", events.events)
		}
	}
}

func TestSafety_OverTempIgnoresTimerState(t *testing.T) {
	// No timer, bubbles off: the interlock still fires.
	cloud := &fakeCloud{state: models.DeviceState{Temp: 41.0}}
	s := newSafetyForTest(cloud, &fakeEventRepo{})

	if err := s.HandleTelemetry(context.Background(), "dev1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cloud.sets) != 2 {
		t.Fatalf("expected 2 writes, got %v", cloud.sets)
	}
}

func TestSafety_StagedShutdownTurnsHeaterOffFirst(t *testing.T) {
	cloud := &fakeCloud{state: models.DeviceState{
		Active: true, Bubbles: true, Heater: true, Temp: 38,
		BubblesShutdown: time.Now().Add(-time.Second),
	}}
	events := &fakeEventRepo{}
	s := newSafetyForTest(cloud, events)

	t0 := time.Now()
	if err := s.HandleTelemetry(context.Background(), "dev1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t1 := time.Now()

	heaterSets := findSets(cloud.sets, models.PathHeater)
	if len(heaterSets) != 1 || heaterSets[0].Value != "false" {
		t.Fatalf("expected heater=false write, got %v", heaterSets)
	}
	if got := findSets(cloud.sets, models.PathBubbles); len(got) != 0 {
		t.Fatalf("bubbles must stay on during phase one, got %v", got)
	}
	timerSets := findSets(cloud.sets, models.PathBubblesShutdown)
	if len(timerSets) != 1 {
		t.Fatalf("expected one timer reschedule, got %v", timerSets)
	}
	next := parseMillisValue(t, timerSets[0].Value)
	assertWithinTimeWindow(t, next, t0.Add(15*time.Second), t1.Add(15*time.Second))

	// heater write must precede the timer reschedule
	if cloud.sets[0].Path != models.PathHeater {
		t.Fatalf("expected heater write first, got %v", cloud.sets)
	}
	if len(events.events) != 1 || events.events[0].Type != models.EventShutdownStaged {
		t.Fatalf("expected SHUTDOWN_STAGED event, got %#v", events.events)
	}
}

func TestSafety_StagedShutdownCompletesWhenHeaterOff(t *testing.T) {
	cloud := &fakeCloud{state: models.DeviceState{
		Active: true, Bubbles: true, Heater: false, Clean: true, Temp: 38,
		BubblesShutdown: time.Now().Add(-time.Second),
	}}
	events := &fakeEventRepo{}
	s := newSafetyForTest(cloud, events)

	if err := s.HandleTelemetry(context.Background(), "dev1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bubbleSets := findSets(cloud.sets, models.PathBubbles)
	if len(bubbleSets) != 1 || bubbleSets[0].Value != "false" {
		t.Fatalf("expected bubbles=false write, got %v", bubbleSets)
	}
	cleanSets := findSets(cloud.sets, models.PathClean)
	if len(cleanSets) != 1 || cleanSets[0].Value != "false" {
		t.Fatalf("expected clean=false write, got %v", cleanSets)
	}
	if len(cloud.deletes) != 1 || cloud.deletes[0] != models.PathBubblesShutdown {
		t.Fatalf("expected shutdown timer delete, got %v", cloud.deletes)
	}
	if len(events.events) != 1 || events.events[0].Type != models.EventShutdownComplete {
		t.Fatalf("expected SHUTDOWN_COMPLETE event, got %#v", events.events)
	}
}

func TestSafety_NoActionWhenTimerNotDue(t *testing.T) {
	cloud := &fakeCloud{state: models.DeviceState{
		Active: true, Bubbles: true, Heater: true, Temp: 38,
		BubblesShutdown: time.Now().Add(10 * time.Minute),
	}}
	s := newSafetyForTest(cloud, &fakeEventRepo{})

	// repeated ticks with no elapsed time mutate nothing
	for i := 0; i < 3; i++ {
		if err := s.HandleTelemetry(context.Background(), "dev1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(cloud.sets) != 0 || len(cloud.deletes) != 0 {
		t.Fatalf("expected no mutations, got sets=%v deletes=%v", cloud.sets, cloud.deletes)
	}
}

func TestSafety_TimerIgnoredWhileBubblesOff(t *testing.T) {
	cloud := &fakeCloud{state: models.DeviceState{
		Active: true, Bubbles: false, Heater: false, Temp: 38,
		BubblesShutdown: time.Now().Add(-time.Minute),
	}}
	s := newSafetyForTest(cloud, &fakeEventRepo{})

	if err := s.HandleTelemetry(context.Background(), "dev1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cloud.sets) != 0 || len(cloud.deletes) != 0 {
		t.Fatalf("expected no mutations, got sets=%v deletes=%v", cloud.sets, cloud.deletes)
	}
}
