package gui

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/m-mizutani/gt"
	"github.com/spf13/afero"
)

func newChooserFixture(t *testing.T) (*FileChooserWin, *fakeLifecycle, *[]string) {
	t.Helper()

	fs := afero.NewMemMapFs()
	gt.NoError(t, fs.MkdirAll("/home/user/archives", 0755))
	gt.NoError(t, afero.WriteFile(fs, "/home/user/archives/c.zip", []byte("PK"), 0644))

	lifecycle := &fakeLifecycle{}
	var opened []string
	c := NewFileChooserWin(test.NewApp(), lifecycle, func(path string) {
		opened = append(opened, path)
	}, WithFs(fs))
	return c, lifecycle, &opened
}

func TestFileChooserCancelQuits(t *testing.T) {
	c, lifecycle, opened := newChooserFixture(t)

	c.chosen("")
	gt.Equal(t, lifecycle.quits, 1)
	gt.Equal(t, len(*opened), 0)
}

func TestFileChooserOpensFile(t *testing.T) {
	c, lifecycle, opened := newChooserFixture(t)

	c.chosen("/home/user/archives/c.zip")
	gt.Equal(t, *opened, []string{"/home/user/archives/c.zip"})
	gt.Equal(t, lifecycle.quits, 0)
}

func TestFileChooserDirectoryShowsAgain(t *testing.T) {
	c, lifecycle, opened := newChooserFixture(t)
	c.home = ""

	c.chosen("/home/user/archives")
	gt.Equal(t, len(*opened), 0)
	gt.Equal(t, lifecycle.quits, 0)
	gt.V(t, c.picker).NotNil()
}
