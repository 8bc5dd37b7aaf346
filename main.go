// Package main is the entry point for l2send, a raw Ethernet frame sender.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/l2send/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
