package config

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	// reloadMu serializes reloads triggered by signals and file watches
	reloadMu sync.Mutex

	// signalMu protects stopChan and doneChan
	signalMu sync.Mutex
	stopChan chan struct{}
	doneChan chan struct{}
)

// SetupSignalHandler starts a goroutine that reloads config on SIGHUP.
// A SIGHUP that arrives while a reload is running is ignored. Calling it
// again replaces the previous handler.
func SetupSignalHandler() {
	StopSignalHandler()

	signalMu.Lock()
	defer signalMu.Unlock()

	sigCh := make(chan os.Signal, 1)
	stop := make(chan struct{})
	done := make(chan struct{})
	stopChan, doneChan = stop, done

	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		defer close(done)
		defer signal.Stop(sigCh)
		for {
			select {
			case <-sigCh:
				if !reloadMu.TryLock() {
					slog.Debug("SIGHUP received during reload; ignoring")
					continue
				}
				slog.Info("received SIGHUP; reloading config")
				_ = Reload()
				reloadMu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

// StopSignalHandler stops the SIGHUP handler and waits for it to exit.
func StopSignalHandler() {
	signalMu.Lock()
	if stopChan == nil {
		signalMu.Unlock()
		return
	}
	close(stopChan)
	done := doneChan
	stopChan, doneChan = nil, nil
	signalMu.Unlock()

	<-done
}
