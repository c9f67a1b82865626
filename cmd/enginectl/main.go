// enginectl wires a 2-axis motion-control core (protocol, gcode, planner,
// stepper, supervisor) to a concrete transport and HTTP status endpoint,
// the way cmd/multiserver wires lab devices to an HTTP mux: a tiny
// subcommand dispatch (root/help/mkconf/conf/version/run) over a koanf
// config, with `run` owning the process for its lifetime.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/tarm/serial"
	"github.com/theckman/yacspin"
	"golang.org/x/time/rate"
	yml "gopkg.in/yaml.v2"

	"github.com/weftlabs/enginecore/config"
	"github.com/weftlabs/enginecore/gcode"
	"github.com/weftlabs/enginecore/hal"
	"github.com/weftlabs/enginecore/kinematics"
	"github.com/weftlabs/enginecore/planner"
	"github.com/weftlabs/enginecore/protocol"
	"github.com/weftlabs/enginecore/statussrv"
	"github.com/weftlabs/enginecore/stepper"
	"github.com/weftlabs/enginecore/supervisor"
	"github.com/weftlabs/enginecore/transport"
)

// Version is the version number, typically injected via ldflags.
var Version = "dev"

// ConfigFileName is the default config path, overridable isn't needed for
// this tool's scope (spec Non-goals: no multi-instance config discovery).
const ConfigFileName = "enginectl.yml"

func root() {
	str := `enginectl runs a 2-axis motion-control core against a serial or TCP
transport, and exposes an HTTP status/control endpoint alongside it.

Usage:
	enginectl <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `enginectl is configured via its .yaml file. For a primer on YAML, see
https://yaml.org/start.html

When no configuration is provided, the defaults are used. Keys are not
case-sensitive. The command mkconf generates the configuration file with
the default values.`
	fmt.Println(str)
}

func mkconf() {
	if err := config.WriteDefault(ConfigFileName); err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	cfg, err := config.Load(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	if err := yml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("enginectl version %v\n", Version)
}

// buildCore wires a fresh core from cfg: kinematics adapter, HAL, planner
// queue, stepper, gcode modal+executor, and the supervisor that owns them
// all (spec §5: the supervisor is the sole owner of shared mutable state
// outside the stepper/ISR boundary).
func buildCore(cfg config.Config) (*supervisor.Supervisor, hal.HAL, *stepper.Stepper) {
	h := hal.NewSim()

	ck := kinematics.NewCartesian()
	ck.StepsPerMM = cfg.StepsPerMM
	var k kinematics.Adapter = ck

	q, err := planner.NewQueue(cfg.PlannerDepth)
	if err != nil {
		log.Fatalf("enginectl: planner queue: %v", err)
	}

	st := stepper.New(h, cfg.StepperConfig())
	m := gcode.NewModal()
	m.Feedrate = cfg.DefaultFeedrate
	exec := gcode.NewExecutor(m, k, q, cfg.ExecutorConfig())
	sv := supervisor.New(m, exec, q, k, h, st, cfg.SupervisorConfig())
	return sv, h, st
}

// buildTransport opens a Host, optionally checksum-wrapped per
// cfg.ChecksumEnabled (for a noisy serial run), bound to a Protocol that
// feeds lines straight into the supervisor.
func buildTransport(cfg config.Config, sv *supervisor.Supervisor) (transport.Transport, error) {
	opts := protocol.DefaultOptions()
	p, err := protocol.New(cfg.LineCapacity, cfg.QueueCapacity, opts)
	if err != nil {
		return nil, fmt.Errorf("enginectl: protocol: %w", err)
	}
	p.LineFunc = func(cl protocol.CompletedLine) {
		sv.ProcessLine(cl.Text)
	}

	var serCfg *serial.Config
	if cfg.TransportSerial {
		serCfg = &serial.Config{Name: cfg.TransportAddr, Baud: cfg.SerialBaud}
	}
	host := transport.NewHost(cfg.TransportAddr, cfg.TransportSerial, serCfg, p)
	if cfg.ChecksumEnabled {
		return transport.NewChecksummedHost(host), nil
	}
	return host, nil
}

// pump drives the stepper/supervisor cooperative loop at cfg.TickHz,
// pacing with a rate.Limiter rather than a raw time.Sleep — enginectl's
// one software-timer stand-in for the hardware ISR a real board would use
// to call Stepper.Update.
func pump(cfg config.Config, sv *supervisor.Supervisor, h hal.HAL, st *stepper.Stepper, stop <-chan struct{}) {
	limiter := rate.NewLimiter(rate.Limit(cfg.TickHz), 1)
	ctx := context.Background()
	for {
		select {
		case <-stop:
			return
		default:
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		sv.Poll()
		if st.Phase() == stepper.Idle {
			if b, ok := sv.Queue.Pop(); ok {
				st.Load(b)
			}
		}
		st.Update(h.Micros())
	}
}

func run() {
	cfg, err := config.Load(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}

	sv, h, st := buildCore(cfg)

	spinner, _ := yacspin.New(yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          " connecting to " + cfg.TransportAddr,
		SuffixAutoColon: true,
	})
	if spinner != nil {
		spinner.Start()
	}

	host, err := buildTransport(cfg, sv)
	if err != nil {
		log.Fatal(err)
	}
	var connErr error
	if cfg.TransportAddr != "" {
		connErr = host.Open()
	}
	if spinner != nil {
		spinner.Stop()
	}
	if connErr != nil {
		color.Red("enginectl: %v", connErr)
		log.Fatal(connErr)
	}

	stop := make(chan struct{})
	go pump(cfg, sv, h, st, stop)
	if cfg.TransportAddr != "" {
		go func() {
			if err := host.RunUntilClosed(); err != nil {
				color.Yellow("enginectl: transport closed: %v", err)
			}
		}()
	}

	statusServer := statussrv.New(sv, "/engine")
	statusServer.BindRoutes()

	color.Green("enginectl listening at %s", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, nil))
}

func main() {
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	cmd := strings.ToLower(args[1])
	switch cmd {
	case "help":
		help()
	case "mkconf":
		mkconf()
	case "conf":
		printconf()
	case "run":
		run()
	case "version":
		pversion()
	default:
		log.Fatal("unknown command")
	}
}
