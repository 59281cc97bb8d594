package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jacuzzi_controller/internal/config"
	"jacuzzi_controller/internal/logger"
	"jacuzzi_controller/internal/models"
	"jacuzzi_controller/internal/repository"
	"jacuzzi_controller/internal/timeago"
)

// Temperature targets are clamped, not rejected.
const (
	MinTargetTempC     = 5.0
	MaxTargetTempC     = 40.0
	DefaultTargetTempC = 40.0
)

// Numbered commands. Zero means "no command": a plain status request.
const (
	CmdNone        = 0
	CmdTogglePower = 1
	CmdSetTemp     = 2
	CmdToggleClean = 3
	CmdToggleUse   = 4
	// 5 and 6 are reserved for resident management, 7-9 unassigned.
)

var ErrDeviceNotFound = errors.New("device not found")

// CommandParams is one resolved chat command.
type CommandParams struct {
	DeviceTag string
	Command   int     // 0 = status report
	Temp      float64 // command 2 only
	TempSet   bool    // whether Temp was supplied by the caller
	IsAdmin   bool
}

// CommandReply is what goes back to the chat transport.
type CommandReply struct {
	Result       string `json:"result"`
	WaitForReply bool   `json:"waitForReply"`
}

// ParseCommand parses a path command segment. Both plain digits ("3") and
// emoji keycap digits ("3️⃣") are accepted; chat clients send either.
// Anything else (free-form chat text, out-of-range numbers) is a plain
// status request, never an error.
func ParseCommand(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return CmdNone
	}
	// keycap emoji = digit + variation selector + combining keycap
	s = strings.TrimSuffix(s, "⃣")
	s = strings.TrimSuffix(s, "️")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 9 {
		return CmdNone
	}
	return n
}

// ClampTemp bounds a requested target temperature to the safe range.
func ClampTemp(t float64) float64 {
	if t > MaxTargetTempC {
		return MaxTargetTempC
	}
	if t < MinTargetTempC {
		return MinTargetTempC
	}
	return t
}

// Reply texts. The chat audience is Brazilian; phrasing follows the
// transport's bold/emoji conventions.
const (
	msgInactive     = "🚨 A jacuzzi *%s* não está em funcionamento!"
	msgAdminOnly    = "🚨 Apenas Administradores podem executar este comando!"
	msgNotToday     = "A Jacuzzi *%s* não foi programada para funcionamento hoje."
	msgNoWater      = "A Jacuzzi *%s* não tem água suficiente para ativar seu funcionamento."
	msgTurnedOff    = "Jacuzzi desligada com sucesso!"
	msgShutdownSoon = "Ela será desligada automaticamente em alguns segundos."
)

// CommandService maps numbered commands to state mutations and reply text.
type CommandService struct {
	cloud  repository.DeviceCloud
	events repository.EventRepo
	timers config.Timers
	locks  *deviceLocks
	words  *timeago.Formatter
	log    *logger.Logger
}

func NewCommandService(cloud repository.DeviceCloud, events repository.EventRepo, timers config.Timers, locks *deviceLocks, log *logger.Logger) *CommandService {
	return &CommandService{
		cloud:  cloud,
		events: events,
		timers: timers,
		locks:  locks,
		words:  timeago.New(timeago.PtBR),
		log:    log,
	}
}

// Dispatch resolves the device by tag, reads its state under the device
// lock and executes the command. Tag matching is case-sensitive against the
// first segment of the composite name; the first match wins.
func (s *CommandService) Dispatch(ctx context.Context, p CommandParams) (CommandReply, error) {
	devices, err := s.cloud.ListDevices(ctx)
	if err != nil {
		return CommandReply{}, err
	}

	var device models.Device
	found := false
	for _, d := range devices {
		if d.Tag() == p.DeviceTag {
			device = d
			found = true
			break
		}
	}
	if !found {
		return CommandReply{}, ErrDeviceNotFound
	}

	unlock := s.locks.Lock(device.ID)
	defer unlock()

	st, err := s.cloud.GetState(ctx, device.ID)
	if err != nil {
		return CommandReply{}, err
	}
	flags := DeriveFlags(st)
	name := device.DisplayName()

	switch p.Command {
	case CmdTogglePower:
		return s.togglePower(ctx, device, name, st, flags), nil
	case CmdSetTemp:
		return s.setTemperature(ctx, device, name, st, flags, p), nil
	case CmdToggleClean:
		return s.toggleClean(ctx, device, name, st, p.IsAdmin), nil
	case CmdToggleUse:
		return s.toggleUse(ctx, device, name, st, p.IsAdmin), nil
	case 5, 6:
		// Resident management, not built yet.
		if !p.IsAdmin {
			return CommandReply{Result: msgAdminOnly}, nil
		}
		return CommandReply{}, nil
	case 7, 8, 9:
		return CommandReply{}, nil
	default:
		return s.statusReport(name, st, flags, p.IsAdmin), nil
	}
}

// togglePower is command 1. On an idle unit it turns both actuators on and
// arms the auto-off timer; on a running unit it kicks off the staged
// shutdown by moving the timer to now.
func (s *CommandService) togglePower(ctx context.Context, device models.Device, name string, st models.DeviceState, flags models.DeviceFlags) CommandReply {
	if !flags.Active {
		return CommandReply{Result: fmt.Sprintf(msgInactive, name)}
	}

	var lines []string
	if flags.On {
		if st.Heater && !st.Bubbles {
			// No bubbles running, so no staged sequence needed for the heater.
			s.set(ctx, device.ID, models.PathHeater, models.FormatBool(false))
		}
		if st.Bubbles {
			s.set(ctx, device.ID, models.PathBubblesShutdown, models.FormatMillis(time.Now()))
			lines = append(lines,
				fmt.Sprintf("Iniciando desligamento da jacuzzi *%s*...", name),
				"",
				msgShutdownSoon,
			)
		} else {
			lines = append(lines, msgTurnedOff)
		}
		s.appendCommand(ctx, device.ID, "power off requested", nil)
	} else {
		if !st.Bubbles {
			s.set(ctx, device.ID, models.PathBubbles, models.FormatBool(true))
		}
		if !st.Heater {
			s.set(ctx, device.ID, models.PathHeater, models.FormatBool(true))
		}

		delay := st.ShutdownUsers
		if delay <= 0 {
			delay = s.timers.UsersShutdown
		}
		shutdownAt := time.Now().Add(delay)
		s.set(ctx, device.ID, models.PathBubblesShutdown, models.FormatMillis(shutdownAt))

		lines = append(lines, fmt.Sprintf("Jacuzzi *%s* foi ligada com sucesso.", name), "")
		if st.TempTarget > 0 {
			lines = append(lines, fmt.Sprintf("🌡 *%sºC* programada para *%sºC*.",
				models.FormatFloat(st.Temp), models.FormatFloat(st.TempTarget)), "")
		}
		lines = append(lines, fmt.Sprintf("Desligamento automático %s.", s.words.InWords(shutdownAt)))
		s.appendCommand(ctx, device.ID, "power on", map[string]any{"bubbles_shutdown": shutdownAt.UnixMilli()})
	}
	return CommandReply{Result: strings.Join(lines, "\n")}
}

// setTemperature is command 2: clamp, write the target, make sure the
// heater is actually running.
func (s *CommandService) setTemperature(ctx context.Context, device models.Device, name string, st models.DeviceState, flags models.DeviceFlags, p CommandParams) CommandReply {
	if !flags.Active {
		return CommandReply{Result: fmt.Sprintf(msgInactive, name)}
	}

	target := DefaultTargetTempC
	if p.TempSet {
		target = ClampTemp(p.Temp)
	}
	s.set(ctx, device.ID, models.PathTempTarget, models.FormatFloat(target))
	if !st.Heater {
		s.set(ctx, device.ID, models.PathHeater, models.FormatBool(true))
	}
	s.appendCommand(ctx, device.ID, "target temperature set", map[string]any{"temp_target": target})

	return CommandReply{Result: fmt.Sprintf("Temperatura da jacuzzi *%s* ajustada para *%sºC*.",
		name, models.FormatFloat(target))}
}

// toggleClean is command 3 (admin): filter-cleaning mode. Bubbles mirror the
// clean flag and the heater is forced off; entering clean mode arms the
// cleaning auto-off timer.
func (s *CommandService) toggleClean(ctx context.Context, device models.Device, name string, st models.DeviceState, isAdmin bool) CommandReply {
	if !isAdmin {
		return CommandReply{Result: msgAdminOnly}
	}

	clean := !st.Clean
	s.set(ctx, device.ID, models.PathClean, models.FormatBool(clean))
	s.set(ctx, device.ID, models.PathBubbles, models.FormatBool(clean))
	s.set(ctx, device.ID, models.PathHeater, models.FormatBool(false))

	state := "desativada"
	if clean {
		state = "ativada"
	}
	lines := []string{fmt.Sprintf("Limpeza do filtro da jacuzzi *%s* foi *%s*.", name, state)}
	if clean {
		shutdownAt := time.Now().Add(s.timers.CleanShutdown)
		s.set(ctx, device.ID, models.PathBubblesShutdown, models.FormatMillis(shutdownAt))
		lines = append(lines, fmt.Sprintf("Desligamento automático %s.", s.words.InWords(shutdownAt)))
	} else if st.Active {
		lines = append(lines, "", "Jacuzzi está liberada para uso!")
	}
	s.appendCommand(ctx, device.ID, "clean mode toggled", map[string]any{"clean": clean})
	return CommandReply{Result: strings.Join(lines, "\n")}
}

// toggleUse is command 4 (admin): enable/disable the unit for the day,
// always dropping both actuators.
func (s *CommandService) toggleUse(ctx context.Context, device models.Device, name string, st models.DeviceState, isAdmin bool) CommandReply {
	if !isAdmin {
		return CommandReply{Result: msgAdminOnly}
	}

	active := !st.Active
	s.set(ctx, device.ID, models.PathActive, models.FormatBool(active))
	s.set(ctx, device.ID, models.PathBubbles, models.FormatBool(false))
	s.set(ctx, device.ID, models.PathHeater, models.FormatBool(false))

	state := "bloqueado"
	if active {
		state = "liberado"
	}
	s.appendCommand(ctx, device.ID, "use toggled", map[string]any{"active": active})
	return CommandReply{Result: fmt.Sprintf("Uso da Jacuzzi %s %s.", name, state)}
}

// statusReport is the read-only default branch: current status plus the user
// menu, and the admin menu when the caller is an admin. Nothing is mutated.
func (s *CommandService) statusReport(name string, st models.DeviceState, flags models.DeviceFlags, isAdmin bool) CommandReply {
	var lines []string
	waitForReply := false
	now := time.Now()

	if flags.Active {
		lines = append(lines, fmt.Sprintf("A jacuzzi *%s* está em funcionamento!", name), "")

		if st.Clean {
			lines = append(lines, "", "A jacuzzi está em *modo de limpeza*.")
			if st.HasShutdownTimer() && st.BubblesShutdown.After(now) {
				lines = append(lines, fmt.Sprintf("Conclusão será feita automaticamente %s.", s.words.InWords(st.BubblesShutdown)))
			}
		} else {
			if st.Bubbles && st.HasShutdownTimer() && st.BubblesShutdown.After(now) {
				lines = append(lines, fmt.Sprintf("A hidromassagem será desligada automaticamente %s.", s.words.InWords(st.BubblesShutdown)))
			}

			if st.TempTarget > 0 && st.CanHeater == 1 && st.Heater {
				lines = append(lines, "", fmt.Sprintf("🌡 *%sºC* programada para *%sºC*.",
					models.FormatFloat(st.Temp), models.FormatFloat(st.TempTarget)))
			} else {
				lines = append(lines, fmt.Sprintf("🌡 *%sºC*.", models.FormatFloat(st.Temp)))
			}

			verb := "Ligar"
			if flags.On || !flags.HeaterActive {
				verb = "Desligar"
			}
			lines = append(lines,
				"",
				"O que deseja fazer?",
				"",
				fmt.Sprintf("1️⃣ %s a jacuzzi.", verb),
				"2️⃣ Mudar a 🌡 programada.",
				"",
			)
			waitForReply = true
		}
	} else {
		if !st.Active {
			lines = append(lines, fmt.Sprintf(msgNotToday, name))
		} else if st.LevelSensor != 1 {
			lines = append(lines, fmt.Sprintf(msgNoWater, name))
		}
	}

	if isAdmin {
		cleanVerb := "Ativar"
		if st.Clean {
			cleanVerb = "Desativar"
		}
		useVerb := "Liberar"
		if flags.Active {
			useVerb = "Bloquear"
		}
		lines = append(lines,
			"", "",
			"🚨 MODO ADMIN",
			"",
			fmt.Sprintf("3️⃣ %s limpeza do filtro.", cleanVerb),
			fmt.Sprintf("4️⃣ %s o funcionamento para condôminos.", useVerb),
			"5️⃣ 🔜 Adicionar condômino.",
			"6️⃣ 🔜 Remover condômino.",
		)
		waitForReply = true
	}

	return CommandReply{Result: strings.Join(lines, "\n"), WaitForReply: waitForReply}
}

// set writes one field, logging failures; the reply is still produced and
// the next tick reconciles whatever did not land.
func (s *CommandService) set(ctx context.Context, deviceID, path, value string) {
	if err := s.cloud.SetState(ctx, deviceID, path, value); err != nil {
		s.log.Errorw("state write failed", "device_id", deviceID, "path", path, "err", err)
	}
}

func (s *CommandService) appendCommand(ctx context.Context, deviceID, desc string, meta map[string]any) {
	err := s.events.Append(ctx, models.ControlEvent{
		DeviceID:    deviceID,
		Type:        models.EventCommand,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil {
		s.log.Errorw("audit append failed", "device_id", deviceID, "err", err)
	}
}
