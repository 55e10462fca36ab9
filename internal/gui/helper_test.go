package gui

import (
	"context"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/m-mizutani/gt"
	"github.com/spf13/afero"
)

// fakeBackend 记录调用，回调由测试手动触发
type fakeBackend struct {
	listCalls int
	listPath  string
	listCtx   context.Context
	listDone  func(entries []string, err error)

	extractCalls int
	extractPath  string
	extractDest  string
	extractCtx   context.Context
	progress     func(fraction float64, name string)
	extractDone  func(err error)
}

func (b *fakeBackend) ListContent(ctx context.Context, path string, done func(entries []string, err error)) {
	b.listCalls++
	b.listPath = path
	b.listCtx = ctx
	b.listDone = done
}

func (b *fakeBackend) Extract(ctx context.Context, path, dest string, progress func(fraction float64, name string), done func(err error)) {
	b.extractCalls++
	b.extractPath = path
	b.extractDest = dest
	b.extractCtx = ctx
	b.progress = progress
	b.extractDone = done
}

type fakeLifecycle struct {
	quits int
}

func (l *fakeLifecycle) Quit() {
	l.quits++
}

type fakeLauncher struct {
	fileManager []string
	terminal    []string
	err         error
}

func (l *fakeLauncher) OpenFileManager(dir string) error {
	l.fileManager = append(l.fileManager, dir)
	return l.err
}

func (l *fakeLauncher) OpenTerminal(dir string) error {
	l.terminal = append(l.terminal, dir)
	return l.err
}

// countingFs 统计 Remove 调用
type countingFs struct {
	afero.Fs
	removed   []string
	removeErr error
}

func (f *countingFs) Remove(name string) error {
	f.removed = append(f.removed, name)
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.Fs.Remove(name)
}

type mainWinFixture struct {
	app       fyne.App
	win       *MainWin
	backend   *fakeBackend
	lifecycle *fakeLifecycle
	launcher  *fakeLauncher
	fs        *countingFs
}

// subfolderSettings 勾选“为内容创建文件夹”的选项
func subfolderSettings() Settings {
	settings := DefaultSettings()
	settings.CreateFolder = true
	return settings
}

// newMainWinFixture 在内存文件系统中放置压缩包并创建主窗口
func newMainWinFixture(t *testing.T, archivePath string, settings Settings) *mainWinFixture {
	t.Helper()

	fs := &countingFs{Fs: afero.NewMemMapFs()}
	gt.NoError(t, fs.MkdirAll("/a/b", 0755))
	gt.NoError(t, afero.WriteFile(fs, archivePath, []byte("PK"), 0644))

	f := &mainWinFixture{
		app:       test.NewApp(),
		backend:   &fakeBackend{},
		lifecycle: &fakeLifecycle{},
		launcher:  &fakeLauncher{},
		fs:        fs,
	}
	f.win = NewMainWin(f.app, f.lifecycle, archivePath, f.backend,
		WithFs(fs),
		WithLauncher(f.launcher),
		WithSettings(settings),
	)
	return f
}

// listed 触发列表完成回调
func (f *mainWinFixture) listed(t *testing.T, entries ...string) {
	t.Helper()
	gt.True(t, f.backend.listDone != nil)
	f.backend.listDone(entries, nil)
}
