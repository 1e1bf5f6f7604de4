// Package interactive provides the interactive command-line interface
// for the UMP keyboard.
package interactive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/ump-ci/umpci-go/pkg/ci"
	"github.com/ump-ci/umpci-go/pkg/keyboard"
	"github.com/ump-ci/umpci-go/pkg/transport/rtmidi"
)

// Keyboard handles interactive mode for umpkbd.
type Keyboard struct {
	ctrl *keyboard.Controller
	rl   *readline.Instance

	// Current playing parameters; the note commands use these unless
	// overridden by arguments.
	channel  uint8
	velocity uint8
}

// New creates a new interactive keyboard handler.
func New(ctrl *keyboard.Controller) (*Keyboard, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "umpkbd> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Keyboard{
		ctrl:     ctrl,
		rl:       rl,
		velocity: 100,
	}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (k *Keyboard) Stdout() io.Writer {
	return k.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (k *Keyboard) Stderr() io.Writer {
	return k.rl.Stderr()
}

// Run starts the interactive command loop.
func (k *Keyboard) Run(ctx context.Context, cancel context.CancelFunc) {
	defer k.rl.Close()

	k.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := k.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(k.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			k.printHelp()

		case "note", "n":
			k.cmdNote(args)

		case "on":
			k.cmdOn(args)

		case "off":
			k.cmdOff(args)

		case "panic":
			k.cmdPanic()

		case "channel", "ch":
			k.cmdChannel(args)

		case "velocity", "vel":
			k.cmdVelocity(args)

		case "discover", "disc":
			k.cmdDiscover()

		case "devices", "ls":
			k.cmdDevices()

		case "device", "dev":
			k.cmdDevice(args)

		case "controls":
			k.cmdControls(args)

		case "programs":
			k.cmdPrograms(args)

		case "ports":
			k.cmdPorts()

		case "status":
			k.cmdStatus()

		case "reset":
			k.cmdReset()

		case "quit", "exit", "q":
			fmt.Fprintln(k.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(k.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (k *Keyboard) printHelp() {
	fmt.Fprintln(k.rl.Stdout(), `
UMP Keyboard Commands:
  Playing:
    note <note> [vel] [ms] - Play a note (e.g. note C4, note 60 127 500)
    on <note> [vel]        - Hold a note
    off <note>             - Release a note
    panic                  - Release all notes on the current channel
    channel <0-15>         - Set the current channel
    velocity <1-127>       - Set the default velocity

  MIDI-CI:
    discover               - Broadcast a discovery inquiry
    devices                - List discovered devices
    device <muid>          - Show device details
    controls <muid>        - Show a device's controller list
    programs <muid>        - Show a device's program list

  General:
    ports                  - List available MIDI ports
    status                 - Show keyboard status
    reset                  - Forget all devices and rediscover
    help                   - Show this help
    quit                   - Exit keyboard

  Note Format:
    Name with octave or plain number - e.g. C4, F#3, Bb2, 60`)
}

// cmdNote handles the note command: note on, hold, note off.
func (k *Keyboard) cmdNote(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(k.rl.Stdout(), "Usage: note <note> [velocity] [duration-ms]")
		fmt.Fprintln(k.rl.Stdout(), "  Example: note C4 100 250")
		return
	}

	note, err := parseNote(args[0])
	if err != nil {
		fmt.Fprintf(k.rl.Stdout(), "Invalid note: %v\n", err)
		return
	}

	velocity := k.velocity
	if len(args) >= 2 {
		v, err := strconv.ParseUint(args[1], 10, 8)
		if err != nil || v > 127 {
			fmt.Fprintf(k.rl.Stdout(), "Invalid velocity: %s (must be 0-127)\n", args[1])
			return
		}
		velocity = uint8(v)
	}

	duration := 250 * time.Millisecond
	if len(args) >= 3 {
		ms, err := strconv.Atoi(args[2])
		if err != nil || ms <= 0 {
			fmt.Fprintf(k.rl.Stdout(), "Invalid duration: %s\n", args[2])
			return
		}
		duration = time.Duration(ms) * time.Millisecond
	}

	if err := k.ctrl.NoteOn(k.channel, note, velocity); err != nil {
		fmt.Fprintf(k.rl.Stdout(), "Error: %v\n", err)
		return
	}
	time.Sleep(duration)
	if err := k.ctrl.NoteOff(k.channel, note); err != nil {
		fmt.Fprintf(k.rl.Stdout(), "Error: %v\n", err)
	}
}

// cmdOn handles the on command.
func (k *Keyboard) cmdOn(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(k.rl.Stdout(), "Usage: on <note> [velocity]")
		return
	}

	note, err := parseNote(args[0])
	if err != nil {
		fmt.Fprintf(k.rl.Stdout(), "Invalid note: %v\n", err)
		return
	}

	velocity := k.velocity
	if len(args) >= 2 {
		v, err := strconv.ParseUint(args[1], 10, 8)
		if err != nil || v > 127 {
			fmt.Fprintf(k.rl.Stdout(), "Invalid velocity: %s (must be 0-127)\n", args[1])
			return
		}
		velocity = uint8(v)
	}

	if err := k.ctrl.NoteOn(k.channel, note, velocity); err != nil {
		fmt.Fprintf(k.rl.Stdout(), "Error: %v\n", err)
	}
}

// cmdOff handles the off command.
func (k *Keyboard) cmdOff(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(k.rl.Stdout(), "Usage: off <note>")
		return
	}

	note, err := parseNote(args[0])
	if err != nil {
		fmt.Fprintf(k.rl.Stdout(), "Invalid note: %v\n", err)
		return
	}

	if err := k.ctrl.NoteOff(k.channel, note); err != nil {
		fmt.Fprintf(k.rl.Stdout(), "Error: %v\n", err)
	}
}

// cmdPanic handles the panic command.
func (k *Keyboard) cmdPanic() {
	if err := k.ctrl.AllNotesOff(k.channel); err != nil {
		fmt.Fprintf(k.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(k.rl.Stdout(), "All notes off (channel %d)\n", k.channel)
}

// cmdChannel handles the channel command.
func (k *Keyboard) cmdChannel(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(k.rl.Stdout(), "Current channel: %d\n", k.channel)
		return
	}

	ch, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil || ch > 15 {
		fmt.Fprintf(k.rl.Stdout(), "Invalid channel: %s (must be 0-15)\n", args[0])
		return
	}
	k.channel = uint8(ch)
	fmt.Fprintf(k.rl.Stdout(), "Channel set to %d\n", k.channel)
}

// cmdVelocity handles the velocity command.
func (k *Keyboard) cmdVelocity(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(k.rl.Stdout(), "Current velocity: %d\n", k.velocity)
		return
	}

	v, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil || v < 1 || v > 127 {
		fmt.Fprintf(k.rl.Stdout(), "Invalid velocity: %s (must be 1-127)\n", args[0])
		return
	}
	k.velocity = uint8(v)
	fmt.Fprintf(k.rl.Stdout(), "Velocity set to %d\n", k.velocity)
}

// cmdDiscover handles the discover command.
func (k *Keyboard) cmdDiscover() {
	if err := k.ctrl.Discover(); err != nil {
		fmt.Fprintf(k.rl.Stdout(), "Discovery error: %v\n", err)
		return
	}
	fmt.Fprintln(k.rl.Stdout(), "Discovery inquiry sent")
}

// cmdDevices handles the devices command.
func (k *Keyboard) cmdDevices() {
	devices := k.ctrl.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(k.rl.Stdout(), "No devices discovered (try 'discover')")
		return
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].MUID < devices[j].MUID })

	fmt.Fprintf(k.rl.Stdout(), "\nDiscovered Devices (%d):\n", len(devices))
	for _, dev := range devices {
		ready := " "
		if dev.EndpointReady {
			ready = "*"
		}
		fmt.Fprintf(k.rl.Stdout(), "  %s %s  %s\n", ready, dev.MUID, dev.DisplayName())
	}
	fmt.Fprintln(k.rl.Stdout(), "\n  * = endpoint ready")
}

// cmdDevice handles the device command.
func (k *Keyboard) cmdDevice(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(k.rl.Stdout(), "Usage: device <muid>")
		return
	}

	muid, err := parseMUID(args[0])
	if err != nil {
		fmt.Fprintf(k.rl.Stdout(), "%v\n", err)
		return
	}

	dev, ok := k.ctrl.Connection(muid)
	if !ok {
		fmt.Fprintf(k.rl.Stdout(), "Unknown device: %s\n", muid)
		return
	}

	fmt.Fprintf(k.rl.Stdout(), "\nDevice %s:\n", dev.MUID)
	fmt.Fprintf(k.rl.Stdout(), "  Name:             %s\n", dev.Name)
	fmt.Fprintf(k.rl.Stdout(), "  Manufacturer:     %s\n", dev.Manufacturer)
	fmt.Fprintf(k.rl.Stdout(), "  Model:            %s\n", dev.Model)
	fmt.Fprintf(k.rl.Stdout(), "  Version:          %s\n", dev.Version)
	fmt.Fprintf(k.rl.Stdout(), "  Identity:         mfr %06X family %04X model %04X rev %08X\n",
		dev.Details.Manufacturer, dev.Details.Family, dev.Details.Model, dev.Details.Version)
	fmt.Fprintf(k.rl.Stdout(), "  Capabilities:     %s\n", dev.Capabilities)
	fmt.Fprintf(k.rl.Stdout(), "  Max SysEx:        %d bytes\n", dev.MaxSysExSize)
	fmt.Fprintf(k.rl.Stdout(), "  Endpoint ready:   %v\n", dev.EndpointReady)
	if dev.ProductInstanceID != "" {
		fmt.Fprintf(k.rl.Stdout(), "  Product instance: %s\n", dev.ProductInstanceID)
	}
	if dev.SimultaneousRequests > 0 {
		fmt.Fprintf(k.rl.Stdout(), "  Simultaneous PE:  %d\n", dev.SimultaneousRequests)
	}
	for _, profile := range dev.Profiles {
		fmt.Fprintf(k.rl.Stdout(), "  Profile:          %s\n", profile)
	}
}

// cmdControls handles the controls command.
func (k *Keyboard) cmdControls(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(k.rl.Stdout(), "Usage: controls <muid>")
		return
	}

	muid, err := parseMUID(args[0])
	if err != nil {
		fmt.Fprintf(k.rl.Stdout(), "%v\n", err)
		return
	}

	controls, ok := k.ctrl.ControlList(muid)
	if !ok {
		fmt.Fprintln(k.rl.Stdout(), "No control list yet (device not ready or reply pending)")
		return
	}

	fmt.Fprintf(k.rl.Stdout(), "\nControls (%d):\n", len(controls))
	for _, c := range controls {
		fmt.Fprintf(k.rl.Stdout(), "  %-20s %-10s %s", c.Title, c.CtrlType, formatCtrlIndex(c.CtrlIndex))
		if c.Channel > 0 {
			fmt.Fprintf(k.rl.Stdout(), "  ch %d", c.Channel)
		}
		fmt.Fprintln(k.rl.Stdout())
	}
}

// cmdPrograms handles the programs command.
func (k *Keyboard) cmdPrograms(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(k.rl.Stdout(), "Usage: programs <muid>")
		return
	}

	muid, err := parseMUID(args[0])
	if err != nil {
		fmt.Fprintf(k.rl.Stdout(), "%v\n", err)
		return
	}

	programs, ok := k.ctrl.ProgramList(muid)
	if !ok {
		fmt.Fprintln(k.rl.Stdout(), "No program list yet (device not ready or reply pending)")
		return
	}

	fmt.Fprintf(k.rl.Stdout(), "\nPrograms (%d):\n", len(programs))
	for _, p := range programs {
		fmt.Fprintf(k.rl.Stdout(), "  %-24s bank %d/%d pc %d", p.Title, p.BankPC[0], p.BankPC[1], p.BankPC[2])
		if len(p.Category) > 0 {
			fmt.Fprintf(k.rl.Stdout(), "  [%s]", strings.Join(p.Category, ", "))
		}
		fmt.Fprintln(k.rl.Stdout())
	}
}

// cmdPorts handles the ports command.
func (k *Keyboard) cmdPorts() {
	inputs, outputs, err := rtmidi.Ports()
	if err != nil {
		fmt.Fprintf(k.rl.Stdout(), "Error listing ports: %v\n", err)
		return
	}

	fmt.Fprintln(k.rl.Stdout(), "\nMIDI Inputs:")
	if len(inputs) == 0 {
		fmt.Fprintln(k.rl.Stdout(), "  (none)")
	}
	for _, name := range inputs {
		fmt.Fprintf(k.rl.Stdout(), "  %s\n", name)
	}

	fmt.Fprintln(k.rl.Stdout(), "\nMIDI Outputs:")
	if len(outputs) == 0 {
		fmt.Fprintln(k.rl.Stdout(), "  (none)")
	}
	for _, name := range outputs {
		fmt.Fprintf(k.rl.Stdout(), "  %s\n", name)
	}
}

// cmdStatus handles the status command.
func (k *Keyboard) cmdStatus() {
	devices := k.ctrl.Devices()
	ready := len(k.ctrl.ReadyDevices())

	fmt.Fprintln(k.rl.Stdout(), "\nKeyboard Status:")
	if muid := k.ctrl.MUID(); muid.Valid() {
		fmt.Fprintf(k.rl.Stdout(), "  Local MUID: %s\n", muid)
	} else {
		fmt.Fprintln(k.rl.Stdout(), "  Local MUID: (not started)")
	}
	fmt.Fprintf(k.rl.Stdout(), "  Connected:  %v\n", k.ctrl.Connected())
	fmt.Fprintf(k.rl.Stdout(), "  Channel:    %d\n", k.channel)
	fmt.Fprintf(k.rl.Stdout(), "  Velocity:   %d\n", k.velocity)
	fmt.Fprintf(k.rl.Stdout(), "  Devices:    %d (%d ready)\n", len(devices), ready)
}

// cmdReset handles the reset command.
func (k *Keyboard) cmdReset() {
	k.ctrl.Reset()
	fmt.Fprintln(k.rl.Stdout(), "Device registry cleared")

	if !k.ctrl.Connected() {
		return
	}
	if err := k.ctrl.Discover(); err != nil {
		fmt.Fprintf(k.rl.Stdout(), "Discovery error: %v\n", err)
		return
	}
	fmt.Fprintln(k.rl.Stdout(), "Discovery inquiry sent")
}

// parseNote converts a note name (C4, F#3, Bb2) or a plain MIDI number to a
// note value. Octaves follow the middle-C-equals-C4 convention, so the full
// range runs C-1 (0) through G9 (127).
func parseNote(s string) (uint8, error) {
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		if n > 127 {
			return 0, fmt.Errorf("note %d out of range 0-127", n)
		}
		return uint8(n), nil
	}

	name := strings.ToUpper(s)
	if len(name) < 2 {
		return 0, fmt.Errorf("invalid note name: %s", s)
	}

	var semitone int
	switch name[0] {
	case 'C':
		semitone = 0
	case 'D':
		semitone = 2
	case 'E':
		semitone = 4
	case 'F':
		semitone = 5
	case 'G':
		semitone = 7
	case 'A':
		semitone = 9
	case 'B':
		semitone = 11
	default:
		return 0, fmt.Errorf("invalid note name: %s", s)
	}

	rest := name[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		semitone++
		rest = rest[1:]
	case strings.HasPrefix(rest, "B") && len(rest) > 1:
		// Flat, e.g. Bb2 or Eb3
		semitone--
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in note: %s", s)
	}

	n := (octave+1)*12 + semitone
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("note %s out of MIDI range", s)
	}
	return uint8(n), nil
}

// parseMUID parses a MUID argument as hex, matching the display format.
func parseMUID(s string) (ci.MUID, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid MUID: %s", s)
	}
	return ci.MUID(v), nil
}

// formatCtrlIndex renders a control's index bytes for display.
func formatCtrlIndex(index []int) string {
	if len(index) == 0 {
		return "-"
	}
	parts := make([]string, len(index))
	for i, v := range index {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "/")
}
