package main

import (
	"fmt"
	"unsafe"

	"github.com/spf13/cobra"

	"corertos.dev/corertos/kernel"
	"corertos.dev/corertos/kernel/config"
	"corertos.dev/corertos/kernel/diag"
	"corertos.dev/corertos/kernel/simhost"
)

var (
	benchOpts = struct {
		threads int
		ticks   int
	}{}

	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Measure scheduling-dispatch latency jitter over a fixed tick count",
		Run: func(cmd *cobra.Command, args []string) {
			runBench(benchOpts.threads, benchOpts.ticks)
		},
	}
)

func init() {
	benchCmd.Flags().IntVarP(&benchOpts.threads, "threads", "n", 4, "number of worker threads to spawn")
	benchCmd.Flags().IntVarP(&benchOpts.ticks, "ticks", "t", 500, "number of system ticks to drive")
}

func runBench(threads, ticks int) {
	c, err := config.Load(configPath)
	if err != nil {
		fmt.Println("config error:", err)
		return
	}

	k := kernel.New()
	if err := config.Apply(k, c); err != nil {
		fmt.Println("config apply error:", err)
		return
	}

	r := simhost.New(k)
	collector := diag.Attach(r)

	for i := 0; i < threads; i++ {
		_, err := r.Spawn(func(arg unsafe.Pointer) {
			for {
				k.Yield()
			}
		}, nil, 0)
		if err != nil {
			fmt.Println("spawn error:", err)
			return
		}
	}

	k.Start(kernel.Started)
	for t := 0; t < ticks; t++ {
		r.FireSysTick()
	}

	for i := 1; i <= threads; i++ {
		_ = k.Kill(kernel.ThreadID(i))
	}
	for t := 0; t < threads+1; t++ {
		r.FireSysTick()
	}

	fmt.Println(collector.Report())
}
