package sh

import (
	"encoding/json"
	"flag"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/evtherm/pkg/telemetry/msgs"
)

// Shell provides ishell backed interactive shell over a Bench.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell
	Bench *Bench
}

const (
	shellKey = "$shell"
	prompt   = "uart > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&TaskCmd,
		&StatusCmd,
		&LoopbackCmd,
		&CycleCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print status in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(b *Bench) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
		Bench: b,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// BenchFunc wraps a Bench operation as an ishell command func.
func BenchFunc(fn func(b *Bench, args []string) (string, error)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		out, err := fn(ShellFrom(c).Bench, c.Args)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(out)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// TaskCmd runs the bridge task once.
	TaskCmd = ishell.Cmd{
		Name:    "task",
		Aliases: []string{"t"},
		Help:    "",
		Func:    BenchFunc((*Bench).Task),
	}

	// StatusCmd prints channel status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "[CHANNEL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			list, err := s.Bench.Status(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			for _, st := range list {
				if !s.OutputJSON {
					c.Println(FormatStatus(st))
					continue
				}
				out, err := json.Marshal(msgs.NewChannelStatus(st))
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
			}
		},
	}

	// LoopbackCmd switches the simulated line loopback.
	LoopbackCmd = ishell.Cmd{
		Name: "loopback",
		Help: "[on|off]",
		Func: BenchFunc((*Bench).Loopback),
	}

	// CycleCmd runs control cycles.
	CycleCmd = ishell.Cmd{
		Name:    "cycle",
		Aliases: []string{"c"},
		Help:    "[N]",
		Func:    BenchFunc((*Bench).Cycle),
	}
)
