package gui

import (
	"runtime"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/m-mizutani/gt"
)

func TestTerminalCommand(t *testing.T) {
	t.Setenv("TERMINAL", "")
	gt.Equal(t, terminalCommand("foot --working-directory ."), []string{"foot", "--working-directory", "."})

	t.Setenv("TERMINAL", "kitty")
	gt.Equal(t, terminalCommand(""), []string{"kitty"})
	gt.Equal(t, terminalCommand("alacritty"), []string{"alacritty"})

	t.Setenv("TERMINAL", "")
	gt.True(t, len(terminalCommand("")) > 0)
}

func TestLauncherOpenTerminal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX command")
	}

	launcher := NewLauncher(test.NewApp(), "true", nil)
	gt.NoError(t, launcher.OpenTerminal(t.TempDir()))

	missing := NewLauncher(test.NewApp(), "epack-no-such-terminal", nil)
	gt.Error(t, missing.OpenTerminal(t.TempDir()))
}
