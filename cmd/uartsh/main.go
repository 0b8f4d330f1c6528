package main

import (
	"flag"
	"log"

	"github.com/robotalks/evtherm/pkg/cli/sh"
	"github.com/robotalks/evtherm/pkg/sim/uarthw"

	_ "github.com/robotalks/evtherm/pkg/cli/cmds/uart"
)

//go-build: CGO_ENABLED=0

func main() {
	flag.Parse()
	bench, err := sh.NewBench(uarthw.New())
	if err != nil {
		log.Fatalln(err)
	}
	sh.New(bench).Run(flag.Args()...)
}
