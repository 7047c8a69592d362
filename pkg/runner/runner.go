package runner

import (
	"bytes"
	"context"
	"os"

	"github.com/dimiro1/banner"
)

// State is the coarse lifecycle of a running session host.
type State int

const (
	StateNew State = iota
	StateStarting
	StateRunning
	StateDraining
	StateStopped
)

// Runner hosts one room session until its context ends.
type Runner interface {
	Run(ctx context.Context) error
	Stop() error
	State() State
}

// Hooks observe lifecycle edges.
type Hooks struct {
	OnStart func()
	OnStop  func()
}

// Drainer releases session resources on shutdown. The room controller's
// Close satisfies this through DrainFunc.
type Drainer interface {
	Drain() error
}

// DrainFunc adapts a plain function to Drainer.
type DrainFunc func() error

func (f DrainFunc) Drain() error { return f() }

const Version = "dev"

func PrintBanner() {
	tpl := "{{ .Title \"REFLECTOR\" \"\" 0 }}\nRoom controller, version: " + Version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
