package gui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/m-mizutani/gt"
	"github.com/mirbf/epack"
	"github.com/spf13/afero"
)

func TestMainWinStartsListing(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.zip", subfolderSettings())

	gt.Equal(t, f.backend.listCalls, 1)
	gt.Equal(t, f.backend.listPath, "/a/b/c.zip")
	gt.Equal(t, f.win.State(), StateListing)
	gt.True(t, f.win.extractBtn.Disabled())
}

func TestMainWinListsEntriesInOrder(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.zip", subfolderSettings())
	entries := []string{"b/", "b/x.txt", "a.txt", "a.txt"}
	f.listed(t, entries...)

	gt.Equal(t, f.win.list.Length(), len(entries))
	for i, entry := range entries {
		item := f.win.list.CreateItem()
		f.win.list.UpdateItem(i, item)

		row := item.(*fyne.Container)
		gt.Equal(t, row.Objects[0].(*widget.Label).Text, entry)

		want := theme.FileIcon().Name()
		if i == 0 {
			want = theme.FolderIcon().Name()
		}
		gt.Equal(t, row.Objects[1].(*widget.Icon).Resource.Name(), want)
	}

	gt.Equal(t, f.win.header.Text, "Archive: c.zip")
	gt.Equal(t, len(f.win.headerBox.Objects), 1)
	gt.False(t, f.win.extractBtn.Disabled())
	gt.Equal(t, f.win.State(), StateReady)
}

func TestMainWinEmptyListingEnablesExtract(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.zip", subfolderSettings())
	gt.True(t, f.win.extractBtn.Disabled())

	f.listed(t)

	gt.Equal(t, f.win.list.Length(), 0)
	gt.False(t, f.win.extractBtn.Disabled())
	gt.Equal(t, f.win.State(), StateReady)
}

func TestMainWinListingError(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.zip", subfolderSettings())
	f.backend.listDone(nil, errors.New("archive is corrupted"))

	gt.Equal(t, f.win.State(), StateError)
	gt.V(t, f.win.errPopup).NotNil()
	gt.Equal(t, f.win.errPopup.message.Text, "archive is corrupted")

	test.Tap(f.win.errPopup.resume)
	gt.V(t, f.win.errPopup).Nil()
	gt.True(t, f.win.extractBtn.Disabled())
	gt.Equal(t, f.lifecycle.quits, 0)
}

func TestMainWinDestination(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.zip", DefaultSettings())

	gt.Equal(t, f.win.destFolder, "/a/b")
	gt.True(t, !f.win.folderCheck.Checked)
	gt.Equal(t, f.win.destButton.Text(), "/a/b")

	f.win.folderCheck.SetChecked(true)
	gt.Equal(t, f.win.destButton.Text(), "/a/b/c")

	f.win.folderCheck.SetChecked(false)
	gt.Equal(t, f.win.destButton.Text(), "/a/b")

	f.win.folderCheck.SetChecked(true)
	gt.Equal(t, f.win.destButton.Text(), "/a/b/c")
}

func TestMainWinDestinationCompoundTar(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.tar.gz", subfolderSettings())
	gt.Equal(t, f.win.destButton.Text(), "/a/b/c")
}

func TestMainWinChooseDestination(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.zip", subfolderSettings())

	f.win.destButton.chosen("/out")
	gt.Equal(t, f.win.destFolder, "/out")
	gt.Equal(t, f.win.destButton.Text(), "/out/c")

	f.win.folderCheck.SetChecked(false)
	gt.Equal(t, f.win.destButton.Text(), "/out")
}

func TestExtractLabel(t *testing.T) {
	gt.Equal(t, extractLabel(PostActionFileManager), "Extract and open FileManager")
	gt.Equal(t, extractLabel(PostActionTerminal), "Extract and open in Terminal")
	gt.Equal(t, extractLabel(PostActionClose), "Extract")
	gt.Equal(t, extractLabel(PostAction("anything")), "Extract")
}

func TestMainWinActionMenu(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.zip", subfolderSettings())
	gt.Equal(t, f.win.extractBtn.Text, "Extract")

	menu := f.win.actionMenu()
	gt.Equal(t, len(menu.Items), 3)

	menu.Items[0].Action()
	gt.Equal(t, f.win.postAction, PostActionFileManager)
	gt.Equal(t, f.win.extractBtn.Text, "Extract and open FileManager")

	menu.Items[1].Action()
	gt.Equal(t, f.win.postAction, PostActionTerminal)
	gt.Equal(t, f.win.extractBtn.Text, "Extract and open in Terminal")

	menu.Items[2].Action()
	gt.Equal(t, f.win.postAction, PostActionClose)
	gt.Equal(t, f.win.extractBtn.Text, "Extract")
}

func TestMainWinExtractSuccessDeletesArchive(t *testing.T) {
	settings := subfolderSettings()
	settings.DeleteArchive = true
	f := newMainWinFixture(t, "/a/b/c.zip", settings)
	f.listed(t, "x.txt")

	test.Tap(f.win.extractBtn)
	gt.Equal(t, f.backend.extractCalls, 1)
	gt.Equal(t, f.backend.extractPath, "/a/b/c.zip")
	gt.Equal(t, f.backend.extractDest, "/a/b/c")
	gt.Equal(t, f.win.State(), StateExtracting)
	gt.True(t, f.win.extractBtn.Disabled())

	created, err := afero.DirExists(f.fs, "/a/b/c")
	gt.NoError(t, err)
	gt.True(t, created)

	gt.V(t, f.win.progress).NotNil()
	f.backend.progress(0.5, "x.txt")
	gt.Equal(t, f.win.progress.bar.Value, 0.5)
	gt.Equal(t, f.win.progress.label.Text, "x.txt")

	f.backend.extractDone(nil)
	gt.V(t, f.win.progress).Nil()
	gt.Equal(t, f.fs.removed, []string{"/a/b/c.zip"})
	gt.Equal(t, f.lifecycle.quits, 1)
	gt.Equal(t, f.win.State(), StateDone)

	exists, err := afero.Exists(f.fs, "/a/b/c.zip")
	gt.NoError(t, err)
	gt.False(t, exists)
}

func TestMainWinExtractSuccessKeepsArchive(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.zip", subfolderSettings())
	f.listed(t, "x.txt")

	test.Tap(f.win.extractBtn)
	f.backend.extractDone(nil)

	gt.Equal(t, len(f.fs.removed), 0)
	gt.Equal(t, f.lifecycle.quits, 1)

	exists, err := afero.Exists(f.fs, "/a/b/c.zip")
	gt.NoError(t, err)
	gt.True(t, exists)
}

func TestMainWinExtractIntoExistingFolder(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.zip", DefaultSettings())
	f.listed(t, "x.txt")

	test.Tap(f.win.extractBtn)
	gt.Equal(t, f.backend.extractDest, "/a/b")
}

func TestMainWinExtractFailure(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.zip", subfolderSettings())
	f.listed(t, "x.txt")

	test.Tap(f.win.extractBtn)
	f.backend.extractDone(errors.New("CORRUPTED_ARCHIVE: checksum mismatch"))

	gt.V(t, f.win.progress).Nil()
	gt.V(t, f.win.errPopup).NotNil()
	gt.Equal(t, f.win.errPopup.message.Text, "CORRUPTED_ARCHIVE: checksum mismatch")
	gt.Equal(t, f.win.State(), StateError)
	gt.Equal(t, f.lifecycle.quits, 0)

	test.Tap(f.win.errPopup.resume)
	gt.Equal(t, f.win.State(), StateReady)
	gt.False(t, f.win.extractBtn.Disabled())
	gt.Equal(t, f.lifecycle.quits, 0)
}

func TestMainWinExtractFailureExit(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.zip", subfolderSettings())
	f.listed(t, "x.txt")

	test.Tap(f.win.extractBtn)
	f.backend.extractDone(errors.New("boom"))
	test.Tap(f.win.errPopup.exit)

	gt.Equal(t, f.lifecycle.quits, 1)
	gt.Equal(t, len(f.fs.removed), 0)
}

func TestMainWinDestinationNotCreatedRecursively(t *testing.T) {
	root := t.TempDir()
	archive := filepath.Join(root, "missing", "deeper", "c.zip")

	backend := &fakeBackend{}
	lifecycle := &fakeLifecycle{}
	w := NewMainWin(test.NewApp(), lifecycle, archive, backend,
		WithFs(afero.NewOsFs()),
		WithLauncher(&fakeLauncher{}),
	)
	backend.listDone([]string{"x.txt"}, nil)

	test.Tap(w.extractBtn)

	gt.Equal(t, backend.extractCalls, 0)
	gt.V(t, w.progress).Nil()
	gt.V(t, w.errPopup).NotNil()
	gt.String(t, w.errPopup.message.Text).Contains("cannot create destination folder")

	_, err := os.Stat(filepath.Join(root, "missing"))
	gt.True(t, os.IsNotExist(err))
}

func TestMainWinCancelExtraction(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.zip", subfolderSettings())
	f.listed(t, "x.txt")

	test.Tap(f.win.extractBtn)
	gt.NoError(t, f.backend.extractCtx.Err())

	test.Tap(f.win.progress.cancel)
	gt.True(t, errors.Is(f.backend.extractCtx.Err(), context.Canceled))
	gt.True(t, f.win.progress.cancel.Disabled())

	f.backend.extractDone(epack.NewExtractError(epack.ErrCancelled, "extraction cancelled", "/a/b/c.zip", context.Canceled))

	gt.V(t, f.win.progress).Nil()
	gt.V(t, f.win.errPopup).Nil()
	gt.Equal(t, f.win.State(), StateReady)
	gt.False(t, f.win.extractBtn.Disabled())
	gt.Equal(t, f.lifecycle.quits, 0)

	// 列表的上下文不受影响
	gt.NoError(t, f.backend.listCtx.Err())
}

func TestMainWinPostAction(t *testing.T) {
	testCases := []struct {
		name        string
		action      PostAction
		fileManager int
		terminal    int
	}{
		{name: "close", action: PostActionClose},
		{name: "file manager", action: PostActionFileManager, fileManager: 1},
		{name: "terminal", action: PostActionTerminal, terminal: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			settings := subfolderSettings()
			settings.PostAction = tc.action
			f := newMainWinFixture(t, "/a/b/c.zip", settings)
			f.listed(t, "x.txt")

			test.Tap(f.win.extractBtn)
			f.backend.extractDone(nil)

			gt.Equal(t, len(f.launcher.fileManager), tc.fileManager)
			gt.Equal(t, len(f.launcher.terminal), tc.terminal)
			if tc.fileManager > 0 {
				gt.Equal(t, f.launcher.fileManager[0], "/a/b/c")
			}
			if tc.terminal > 0 {
				gt.Equal(t, f.launcher.terminal[0], "/a/b/c")
			}
			gt.Equal(t, f.lifecycle.quits, 1)
		})
	}
}

func TestMainWinLauncherFailureStillQuits(t *testing.T) {
	settings := subfolderSettings()
	settings.PostAction = PostActionTerminal
	f := newMainWinFixture(t, "/a/b/c.zip", settings)
	f.launcher.err = errors.New("no terminal")
	f.listed(t, "x.txt")

	test.Tap(f.win.extractBtn)
	f.backend.extractDone(nil)

	gt.Equal(t, len(f.launcher.terminal), 1)
	gt.Equal(t, f.lifecycle.quits, 1)
}

func TestMainWinDeleteFailure(t *testing.T) {
	settings := subfolderSettings()
	settings.DeleteArchive = true
	f := newMainWinFixture(t, "/a/b/c.zip", settings)
	f.fs.removeErr = os.ErrPermission
	f.listed(t, "x.txt")

	test.Tap(f.win.extractBtn)
	f.backend.extractDone(nil)

	gt.Equal(t, len(f.fs.removed), 1)
	gt.V(t, f.win.errPopup).NotNil()
	gt.String(t, f.win.errPopup.message.Text).Contains("could not be deleted")
	gt.Equal(t, f.lifecycle.quits, 0)
}

func TestMainWinCloseCancelsWork(t *testing.T) {
	f := newMainWinFixture(t, "/a/b/c.zip", subfolderSettings())

	f.win.close()

	gt.True(t, errors.Is(f.backend.listCtx.Err(), context.Canceled))
	gt.Equal(t, f.lifecycle.quits, 1)
}

func TestStateString(t *testing.T) {
	gt.Equal(t, StateListing.String(), "listing")
	gt.Equal(t, StateExtracting.String(), "extracting")
	gt.Equal(t, State(42).String(), "unknown")
}
