// Package uart registers the channel commands of the bench shell.
package uart

import (
	"github.com/abiosoft/ishell"

	"github.com/robotalks/evtherm/pkg/cli/sh"
)

var (
	// InitCmd configures a channel.
	InitCmd = ishell.Cmd{
		Name:    "init",
		Aliases: []string{"i"},
		Help:    "CHANNEL BAUD [DATABITS [PARITY [STOPBITS]]]",
		Func:    sh.BenchFunc((*sh.Bench).Init),
	}

	// DeinitCmd returns a channel to uninitialized.
	DeinitCmd = ishell.Cmd{
		Name: "deinit",
		Help: "CHANNEL",
		Func: sh.BenchFunc((*sh.Bench).Deinit),
	}

	// WriteCmd enqueues data for transmission.
	WriteCmd = ishell.Cmd{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "CHANNEL [-x] DATA...",
		Func:    sh.BenchFunc((*sh.Bench).Write),
	}

	// ReadCmd dequeues received data.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "CHANNEL [MAX]",
		Func:    sh.BenchFunc((*sh.Bench).Read),
	}

	// TxCmd prints the bytes waiting for transmission.
	TxCmd = ishell.Cmd{
		Name: "tx",
		Help: "CHANNEL",
		Func: sh.BenchFunc((*sh.Bench).TxStatus),
	}

	// RxCmd prints the bytes waiting to be read.
	RxCmd = ishell.Cmd{
		Name: "rx",
		Help: "CHANNEL",
		Func: sh.BenchFunc((*sh.Bench).RxStatus),
	}

	// FlagsCmd prints and clears the receive conditions.
	FlagsCmd = ishell.Cmd{
		Name:    "flags",
		Aliases: []string{"f"},
		Help:    "CHANNEL",
		Func:    sh.BenchFunc((*sh.Bench).Flags),
	}

	// InjectCmd delivers bytes from the line to the hardware.
	InjectCmd = ishell.Cmd{
		Name: "inject",
		Help: "CHANNEL [-p] [-x] DATA...",
		Func: sh.BenchFunc((*sh.Bench).Inject),
	}

	// ShiftCmd lets the line consume transmitted symbols.
	ShiftCmd = ishell.Cmd{
		Name: "shift",
		Help: "CHANNEL [N]",
		Func: sh.BenchFunc((*sh.Bench).Shift),
	}

	// FramesCmd decodes link packets from received data.
	FramesCmd = ishell.Cmd{
		Name: "frames",
		Help: "CHANNEL",
		Func: sh.BenchFunc((*sh.Bench).Frames),
	}
)

func init() {
	sh.AddCmds(
		&InitCmd,
		&DeinitCmd,
		&WriteCmd,
		&ReadCmd,
		&TxCmd,
		&RxCmd,
		&FlagsCmd,
		&InjectCmd,
		&ShiftCmd,
		&FramesCmd,
	)
}
