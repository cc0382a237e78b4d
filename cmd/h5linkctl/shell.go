package main

import (
	"encoding/hex"
	"fmt"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/nordic-semi/h5link/pkg/transport"
)

// shell wraps an ishell interactive shell around one H5Transport, in the
// same spirit as the teacher's pkg/cli/sh.Shell: a thin ishell.Shell plus
// the state the commands close over.
type shell struct {
	link  *transport.H5Transport
	ishel *ishell.Shell
}

func newShell(link *transport.H5Transport) *shell {
	s := &shell{link: link, ishel: ishell.New()}
	s.ishel.SetPrompt("h5> ")
	s.ishel.AddCmd(&ishell.Cmd{
		Name: "send",
		Help: "send HEXBYTES - send a reliable vendor-specific packet",
		Func: s.cmdSend,
	})
	s.ishel.AddCmd(&ishell.Cmd{
		Name: "stats",
		Help: "print packet/error counters",
		Func: s.cmdStats,
	})
	return s
}

func (s *shell) cmdSend(c *ishell.Context) {
	if len(c.Args) != 1 {
		c.Err(fmt.Errorf("usage: send HEXBYTES"))
		return
	}
	payload, err := hex.DecodeString(c.Args[0])
	if err != nil {
		c.Err(fmt.Errorf("invalid hex: %w", err))
		return
	}
	if err := s.link.Send(payload); err != nil {
		c.Err(err)
		return
	}
	c.Println("OK")
}

func (s *shell) cmdStats(c *ishell.Context) {
	c.Println(s.link.Stats().String())
}

// run starts the shell. In eval mode (one-shot) args is run as a single
// command line instead of entering the interactive loop, matching the
// teacher's -e flag.
func (s *shell) run(evalOnly bool, args []string) {
	if evalOnly {
		if len(args) == 0 {
			glog.Error("--eval requires a command")
			return
		}
		if err := s.ishel.Process(args...); err != nil {
			glog.Error(err)
		}
		return
	}
	s.ishel.Run()
}

func (s *shell) onStatus(code transport.StatusCode, msg string) {
	glog.Infof("status: %s: %s", code, msg)
}

func (s *shell) onData(payload []byte) {
	glog.Infof("recv: %s", hex.EncodeToString(payload))
}

func (s *shell) onLog(level transport.LogLevel, text string) {
	if level == transport.LogError {
		glog.Error(text)
		return
	}
	glog.V(1).Info(text)
}
