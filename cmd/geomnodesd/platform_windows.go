//go:build windows

package main

import (
	"os"
	"os/signal"
)

// waitForShutdownSignal blocks until an interrupt is received. Windows
// services deliver ctrl-break as os.Interrupt.
func waitForShutdownSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	<-sigChan
}
