// Command umpkbd is a virtual MIDI 2.0 keyboard controller.
//
// This command demonstrates a complete MIDI-CI capable keyboard with:
//   - CLI argument parsing
//   - Configuration file support
//   - Virtual or hardware MIDI port attachment
//   - MIDI-CI discovery and property exchange
//   - Interactive command interface
//   - Protocol capture for offline analysis
//
// Usage:
//
//	umpkbd [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-virtual              Create virtual MIDI ports (default when no -in/-out)
//	-name string          Port name for virtual ports (default "UMP Keyboard")
//	-in string            MIDI input port name (substring match)
//	-out string           MIDI output port name (substring match)
//	-group int            UMP group for outgoing traffic (0-15)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write a protocol capture (.cilog) to this path
//	-list-ports           List available MIDI ports and exit
//
// Examples:
//
//	# Start with virtual ports and the interactive console
//	umpkbd -virtual
//
//	# Attach to hardware ports
//	umpkbd -in "MIDI 2.0 Synth" -out "MIDI 2.0 Synth"
//
//	# Capture protocol traffic for later cidump analysis
//	umpkbd -virtual -protocol-log keyboard.cilog
//
// Interactive Commands:
//
//	note <note> [vel] [ms] - Play a note
//	discover               - Broadcast a discovery inquiry
//	devices                - List discovered devices
//	controls <muid>        - Show a device's controller list
//	programs <muid>        - Show a device's program list
//	status                 - Show keyboard status
//	quit                   - Exit the keyboard
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ump-ci/umpci-go/cmd/umpkbd/interactive"
	"github.com/ump-ci/umpci-go/pkg/ci"
	"github.com/ump-ci/umpci-go/pkg/keyboard"
	cilog "github.com/ump-ci/umpci-go/pkg/log"
	"github.com/ump-ci/umpci-go/pkg/session"
	"github.com/ump-ci/umpci-go/pkg/transport/rtmidi"
)

// Config holds the keyboard configuration.
type Config struct {
	ConfigFile  string
	Virtual     bool
	PortName    string
	InPort      string
	OutPort     string
	Group       int
	LogLevel    string
	ProtocolLog string
	ListPorts   bool
}

var config Config

func init() {
	flag.StringVar(&config.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.BoolVar(&config.Virtual, "virtual", false, "Create virtual MIDI ports")
	flag.StringVar(&config.PortName, "name", "UMP Keyboard", "Port name for virtual ports")
	flag.StringVar(&config.InPort, "in", "", "MIDI input port name (substring match)")
	flag.StringVar(&config.OutPort, "out", "", "MIDI output port name (substring match)")
	flag.IntVar(&config.Group, "group", 0, "UMP group for outgoing traffic (0-15)")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "Write a protocol capture (.cilog) to this path")
	flag.BoolVar(&config.ListPorts, "list-ports", false, "List available MIDI ports and exit")
}

func main() {
	flag.Parse()

	// Setup logging
	level := setupLogging(config.LogLevel)

	if config.ListPorts {
		if err := listPorts(); err != nil {
			log.Fatalf("Failed to list MIDI ports: %v", err)
		}
		return
	}

	log.Println("UMP Virtual Keyboard")
	log.Println("====================")

	if config.Group < 0 || config.Group > 15 {
		log.Fatalf("Invalid group: %d (must be 0-15)", config.Group)
	}

	// Load session configuration
	sessCfg := session.DefaultConfig()
	if config.ConfigFile != "" {
		var err error
		sessCfg, err = session.LoadConfig(config.ConfigFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	log.Printf("Device: %s %s (%s)", sessCfg.Manufacturer, sessCfg.Model, sessCfg.Version)
	log.Printf("UMP group: %d", config.Group)

	// Open the MIDI transport
	port, err := openPort()
	if err != nil {
		log.Fatalf("Failed to open MIDI port: %v", err)
	}
	log.Printf("MIDI port: %s", port.Name())

	// Build the keyboard controller
	ctrl, err := keyboard.NewController(port, sessCfg, uint8(config.Group))
	if err != nil {
		log.Fatalf("Failed to create keyboard: %v", err)
	}
	ctrl.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Protocol capture
	if config.ProtocolLog != "" {
		capture, err := cilog.NewFileLogger(config.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to open protocol log: %v", err)
		}
		defer capture.Close()
		ctrl.SetProtocolLogger(capture)
		log.Printf("Protocol capture: %s", config.ProtocolLog)
	}

	// Register event handlers
	ctrl.OnDevicesChanged(func() {
		log.Printf("[EVENT] Devices changed: %d discovered, %d ready",
			len(ctrl.Devices()), len(ctrl.ReadyDevices()))
	})
	ctrl.OnPropertiesChanged(func(muid ci.MUID) {
		log.Printf("[EVENT] Properties updated for %s", muid)
	})

	// Start the MIDI-CI session; the open port triggers discovery.
	if err := ctrl.Start(0); err != nil {
		log.Fatalf("Failed to start MIDI-CI session: %v", err)
	}
	log.Printf("Local MUID: %s", ctrl.MUID())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run the interactive console
	ic, err := interactive.New(ctrl)
	if err != nil {
		log.Fatalf("Failed to create interactive keyboard: %v", err)
	}
	// Redirect log output through readline to avoid interfering with input
	log.SetOutput(ic.Stdout())
	ctrl.SetLogger(slog.New(slog.NewTextHandler(ic.Stdout(), &slog.HandlerOptions{Level: level})))
	go ic.Run(ctx, cancel)

	// Wait for shutdown signal or context cancellation
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
		// Context was cancelled (e.g., by interactive quit command)
	}

	log.Println("Shutting down...")

	if err := ctrl.Close(); err != nil {
		log.Printf("Error closing keyboard: %v", err)
	}

	log.Println("Goodbye!")
}

func setupLogging(level string) slog.Level {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
		return slog.LevelDebug
	case "warn":
		log.SetFlags(log.Ltime)
		return slog.LevelWarn
	case "error":
		log.SetFlags(log.Ltime)
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openPort attaches to the configured MIDI ports. With no explicit ports a
// virtual pair is created, which is the common setup for DAW integration.
func openPort() (*rtmidi.Port, error) {
	if config.Virtual || (config.InPort == "" && config.OutPort == "") {
		return rtmidi.OpenVirtual(config.PortName, uint8(config.Group))
	}
	if config.InPort == "" || config.OutPort == "" {
		return nil, fmt.Errorf("both -in and -out are required (or use -virtual)")
	}
	return rtmidi.Open(config.InPort, config.OutPort, uint8(config.Group))
}

func listPorts() error {
	inputs, outputs, err := rtmidi.Ports()
	if err != nil {
		return err
	}

	fmt.Println("MIDI Inputs:")
	if len(inputs) == 0 {
		fmt.Println("  (none)")
	}
	for i, name := range inputs {
		fmt.Printf("  %d. %s\n", i+1, name)
	}

	fmt.Println()
	fmt.Println("MIDI Outputs:")
	if len(outputs) == 0 {
		fmt.Println("  (none)")
	}
	for i, name := range outputs {
		fmt.Printf("  %d. %s\n", i+1, name)
	}

	return nil
}
