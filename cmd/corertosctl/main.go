package main

import "log"

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.SetFlags(0)
		log.Fatalf("corertosctl: %v", err)
	}
}
