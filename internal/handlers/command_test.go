package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"jacuzzi_controller/internal/service"
)

func TestDeviceCommand_ReturnsReplyJSON(t *testing.T) {
	commands := &mockCommands{reply: service.CommandReply{
		Result:       "Jacuzzi *Cobertura 101* foi ligada com sucesso.",
		WaitForReply: false,
	}}
	h := newTestHandler(nil, commands, nil, nil)

	w := doRequest(h, http.MethodGet, "/device/101/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var reply service.CommandReply
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if reply != commands.reply {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if commands.lastParams.DeviceTag != "101" || commands.lastParams.Command != 1 {
		t.Fatalf("unexpected params %+v", commands.lastParams)
	}
}

func TestDeviceCommand_WithoutCommandIsStatusRequest(t *testing.T) {
	commands := &mockCommands{reply: service.CommandReply{Result: "status", WaitForReply: true}}
	h := newTestHandler(nil, commands, nil, nil)

	w := doRequest(h, http.MethodGet, "/device/101", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if commands.lastParams.Command != service.CmdNone {
		t.Fatalf("expected CmdNone, got %d", commands.lastParams.Command)
	}
}

func TestDeviceCommand_EmojiDigitAccepted(t *testing.T) {
	commands := &mockCommands{}
	h := newTestHandler(nil, commands, nil, nil)

	w := doRequest(h, http.MethodGet, "/device/101/"+url.PathEscape("3️⃣"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if commands.lastParams.Command != 3 {
		t.Fatalf("expected command 3, got %d", commands.lastParams.Command)
	}
}

func TestDeviceCommand_QueryParamsPassedThrough(t *testing.T) {
	commands := &mockCommands{}
	h := newTestHandler(nil, commands, nil, nil)

	w := doRequest(h, http.MethodGet, "/device/101/2?temp=38.5&isAdmin=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	p := commands.lastParams
	if !p.TempSet || p.Temp != 38.5 || !p.IsAdmin || p.Command != 2 {
		t.Fatalf("unexpected params %+v", p)
	}
}

func TestDeviceCommand_MissingTempLeavesDefault(t *testing.T) {
	commands := &mockCommands{}
	h := newTestHandler(nil, commands, nil, nil)

	doRequest(h, http.MethodGet, "/device/101/2", nil)
	if commands.lastParams.TempSet {
		t.Fatalf("expected TempSet=false without temp query")
	}
}

func TestDeviceCommand_UnknownTagIs404(t *testing.T) {
	commands := &mockCommands{err: service.ErrDeviceNotFound}
	h := newTestHandler(nil, commands, nil, nil)

	w := doRequest(h, http.MethodGet, "/device/999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeviceCommand_UnrecognizedTextIsStatusRequest(t *testing.T) {
	commands := &mockCommands{reply: service.CommandReply{Result: "status", WaitForReply: true}}
	h := newTestHandler(nil, commands, nil, nil)

	// Free-form chat replies and out-of-range numbers fall through to the
	// status report instead of being rejected.
	for _, cmd := range []string{"0", "10", "oi", "sim"} {
		w := doRequest(h, http.MethodGet, "/device/101/"+cmd, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("command %q: expected 200, got %d: %s", cmd, w.Code, w.Body.String())
		}
		if commands.lastParams.Command != service.CmdNone {
			t.Fatalf("command %q: expected CmdNone, got %d", cmd, commands.lastParams.Command)
		}
	}
	if commands.calls != 4 {
		t.Fatalf("expected 4 dispatches, got %d", commands.calls)
	}
}

func TestDeviceCommand_CloudFailureIs502(t *testing.T) {
	commands := &mockCommands{err: errors.New("cloud down")}
	h := newTestHandler(nil, commands, nil, nil)

	w := doRequest(h, http.MethodGet, "/device/101/1", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}
