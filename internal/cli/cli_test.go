package cli

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mirbf/epack/internal/cli/config"
	"github.com/mirbf/epack/internal/gui"
	"github.com/spf13/afero"
)

func TestDecide(t *testing.T) {
	fs := afero.NewMemMapFs()
	gt.NoError(t, fs.MkdirAll("/data/folder", 0755))
	gt.NoError(t, afero.WriteFile(fs, "/data/a.zip", []byte("PK"), 0644))
	gt.NoError(t, afero.WriteFile(fs, "/data/notes.txt", []byte("hi"), 0644))

	isSupported := func(path string) bool {
		return path == "/data/a.zip"
	}

	tests := []struct {
		name    string
		args    []string
		kind    windowKind
		message string
	}{
		{name: "no argument", args: nil, kind: windowChooser},
		{name: "archive", args: []string{"/data/a.zip"}, kind: windowMain},
		{name: "missing", args: []string{"/data/b.zip"}, kind: windowError, message: "file not found"},
		{name: "folder", args: []string{"/data/folder"}, kind: windowError, message: "is a folder"},
		{name: "unsupported", args: []string{"/data/notes.txt"}, kind: windowError, message: "Unsupported archive format"},
		{name: "too many", args: []string{"/data/a.zip", "/data/a.zip"}, kind: windowError, message: "Only one archive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := decide(fs, isSupported, tt.args)
			gt.Equal(t, start.kind, tt.kind)
			if tt.message != "" {
				gt.String(t, start.message).Contains(tt.message)
			}
			if tt.kind == windowMain {
				gt.Equal(t, start.path, tt.args[0])
			}
		})
	}
}

func TestGUISettings(t *testing.T) {
	file := config.DefaultFile()
	file.DeleteArchive = true
	file.PostAction = "fm"
	file.ShowAllFiles = true
	file.Window = config.Window{Width: 0, Height: 300}

	settings := guiSettings(file)
	gt.True(t, settings.DeleteArchive)
	gt.True(t, !settings.CreateFolder)
	gt.Equal(t, settings.PostAction, gui.PostActionFileManager)
	gt.True(t, settings.ShowAllFiles)
	gt.Equal(t, settings.WindowSize, gui.DefaultSettings().WindowSize)

	file.Window = config.Window{Width: 800, Height: 600}
	settings = guiSettings(file)
	gt.Equal(t, settings.WindowSize.Width, float32(800))
	gt.Equal(t, settings.WindowSize.Height, float32(600))
}
