package main

import (
	"fmt"
	"unsafe"

	"github.com/spf13/cobra"

	"corertos.dev/corertos/kernel"
	"corertos.dev/corertos/kernel/config"
	"corertos.dev/corertos/kernel/simhost"
)

var (
	runOpts = struct {
		threads int
		ticks   int
		slice   int32
	}{}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a fixed-thread-count scenario against the host simulation and print a scheduler trace",
		Run: func(cmd *cobra.Command, args []string) {
			runScenario(runOpts.threads, runOpts.ticks, runOpts.slice)
		},
	}
)

func init() {
	runCmd.Flags().IntVarP(&runOpts.threads, "threads", "n", 3, "number of worker threads to spawn")
	runCmd.Flags().IntVarP(&runOpts.ticks, "ticks", "t", 20, "number of system ticks to drive")
	runCmd.Flags().Int32VarP(&runOpts.slice, "slice", "s", 4, "default time slice, in ticks")
}

func runScenario(threads, ticks int, slice int32) {
	c, err := config.Load(configPath)
	if err != nil {
		fmt.Println("config error:", err)
		return
	}
	c.DefaultTicks = slice

	k := kernel.New()
	if err := config.Apply(k, c); err != nil {
		fmt.Println("config apply error:", err)
		return
	}

	r := simhost.New(k)

	iterations := ticks / max(threads, 1)
	if iterations < 1 {
		iterations = 1
	}
	for i := 0; i < threads; i++ {
		id, err := r.Spawn(func(arg unsafe.Pointer) {
			for n := 0; n < iterations; n++ {
				fmt.Printf("thread %d: iteration %d/%d\n", i+1, n+1, iterations)
				k.Yield()
			}
		}, nil, 0)
		if err != nil {
			fmt.Println("spawn error:", err)
			return
		}
		fmt.Printf("spawned thread id=%d\n", id)
	}

	k.Start(kernel.Started)
	for t := 0; t < ticks; t++ {
		r.FireSysTick()
		fmt.Printf("tick %d: current=%d millis=%d\n", t+1, k.CurrentID(), k.Millis())
	}

	if err := r.Wait(); err != nil {
		fmt.Println("scenario error:", err)
	}
}
