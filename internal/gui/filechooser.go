package gui

import (
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"github.com/mirbf/epack"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// FileChooserWin 未指定压缩包时用于选择文件的窗口
type FileChooserWin struct {
	window    fyne.Window
	lifecycle Lifecycle
	fs        afero.Fs
	logger    *zap.Logger
	open      func(path string)
	showAll   bool
	home      string
	picker    *dialog.FileDialog
}

// NewFileChooserWin 创建文件选择窗口，选定文件后调用 open
func NewFileChooserWin(app fyne.App, lifecycle Lifecycle, open func(path string), opts ...Option) *FileChooserWin {
	o := buildOptions(opts)

	home, err := os.UserHomeDir()
	if err != nil {
		o.logger.Warn("cannot resolve home directory", zap.Error(err))
	}

	c := &FileChooserWin{
		window:    app.NewWindow("epack - Choose an archive"),
		lifecycle: lifecycle,
		fs:        o.fs,
		logger:    o.logger,
		open:      open,
		showAll:   o.settings.ShowAllFiles,
		home:      home,
	}
	c.window.Resize(o.settings.WindowSize)
	c.window.SetCloseIntercept(func() { c.chosen("") })
	return c
}

// Show 显示窗口与文件对话框
func (c *FileChooserWin) Show() {
	c.window.Show()
	c.showPicker()
}

// showPicker 以家目录为起点显示文件对话框
func (c *FileChooserWin) showPicker() {
	c.picker = dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			c.logger.Warn("file dialog failed", zap.Error(err))
			c.chosen("")
			return
		}
		if reader == nil {
			c.chosen("")
			return
		}
		path := reader.URI().Path()
		_ = reader.Close()
		c.chosen(path)
	}, c.window)

	if c.home != "" {
		if location, err := storage.ListerForURI(storage.NewFileURI(c.home)); err == nil {
			c.picker.SetLocation(location)
		}
	}
	if !c.showAll {
		c.picker.SetFilter(storage.NewExtensionFileFilter(epack.SupportedExtensions()))
	}
	c.picker.Resize(c.window.Canvas().Size())
	c.picker.Show()
}

// chosen 处理选择结果：取消则退出，目录则重新显示，文件则打开主窗口
func (c *FileChooserWin) chosen(path string) {
	if path == "" {
		c.logger.Debug("file chooser cancelled")
		c.lifecycle.Quit()
		return
	}

	isDir, err := afero.IsDir(c.fs, path)
	if err == nil && isDir {
		c.logger.Debug("directory chosen, showing chooser again", zap.String("path", path))
		c.showPicker()
		return
	}

	c.logger.Info("archive chosen", zap.String("path", path))
	c.open(path)
	c.window.Close()
}
