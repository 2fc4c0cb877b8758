// Command nachos boots the threaded kernel on a simulated machine and runs
// its self tests.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ldh0784/Nachos/machine"
	"github.com/ldh0784/Nachos/threads"
)

func main() {
	cfg := machine.DefaultConfig()
	fs := flag.NewFlagSet("nachos", flag.ExitOnError)
	cfg.RegisterFlags(fs)
	test := fs.String("test", "all", "self test to run: alarm, staggered, interlock or all")
	rounds := fs.Int("n", 10, "rounds for the interlock test")
	fs.Parse(os.Args[1:])

	os.Exit(run(cfg, *test, *rounds, os.Stdout))
}

func run(cfg machine.Config, test string, rounds int, w io.Writer) int {
	var selfTest func(k *threads.Kernel)
	switch test {
	case "alarm":
		selfTest = func(k *threads.Kernel) { fmt.Fprintln(w, threads.AlarmSelfTest(k, w)) }
	case "staggered":
		selfTest = func(k *threads.Kernel) { fmt.Fprintln(w, threads.AlarmStaggeredSelfTest(k, w)) }
	case "interlock":
		selfTest = func(k *threads.Kernel) { threads.InterlockSelfTest(k, w, rounds) }
	case "all":
		selfTest = func(k *threads.Kernel) { threads.SelfTest(k, w) }
	default:
		fmt.Fprintf(os.Stderr, "nachos: unknown test %q\n", test)
		return 2
	}

	k := threads.NewKernel(cfg)
	err := k.Run(func() { selfTest(k) })

	fmt.Fprintf(w, "Machine halting!\n\n%v\n", k.Machine().Stats())
	if err != nil {
		fmt.Fprintf(os.Stderr, "nachos: %v\n", err)
		return 1
	}
	return 0
}
