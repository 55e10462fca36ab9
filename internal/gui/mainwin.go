package gui

import (
	"context"
	"errors"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mirbf/epack"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// State 主窗口状态
type State int

const (
	StateListing State = iota
	StateReady
	StateExtracting
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateListing:
		return "listing"
	case StateReady:
		return "ready"
	case StateExtracting:
		return "extracting"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	}
	return "unknown"
}

// extractLabel 解压按钮的文字
func extractLabel(action PostAction) string {
	switch action {
	case PostActionFileManager:
		return "Extract and open FileManager"
	case PostActionTerminal:
		return "Extract and open in Terminal"
	default:
		return "Extract"
	}
}

// entryIcon 条目图标，以 "/" 结尾的条目为目录
func entryIcon(entry string) fyne.Resource {
	if len(entry) > 0 && entry[len(entry)-1] == '/' {
		return theme.FolderIcon()
	}
	return theme.FileIcon()
}

// progressPopup 解压进度弹窗
type progressPopup struct {
	dialog *dialog.CustomDialog
	label  *widget.Label
	bar    *widget.ProgressBar
	cancel *widget.Button
}

// errorPopup 错误弹窗
type errorPopup struct {
	dialog  *dialog.CustomDialog
	message *widget.Label
	resume  *widget.Button
	exit    *widget.Button
}

// MainWin 压缩包主窗口：内容列表、目标目录、选项与解压
type MainWin struct {
	window    fyne.Window
	lifecycle Lifecycle
	backend   Backend
	launcher  Launcher
	fs        afero.Fs
	logger    *zap.Logger

	archivePath string
	destFolder  string
	postAction  PostAction
	state       State
	listed      bool

	ctx           context.Context
	cancel        context.CancelFunc
	cancelExtract context.CancelFunc

	entries     []string
	header      *widget.Label
	headerBox   *fyne.Container
	spinner     *widget.ProgressBarInfinite
	list        *widget.List
	destButton  *DestinationButton
	deleteCheck *widget.Check
	folderCheck *widget.Check
	extractBtn  *widget.Button
	actionBtn   *widget.Button

	progress *progressPopup
	errPopup *errorPopup
}

// NewMainWin 创建主窗口并立即开始列出内容
func NewMainWin(app fyne.App, lifecycle Lifecycle, archivePath string, backend Backend, opts ...Option) *MainWin {
	o := buildOptions(opts)
	launcher := o.launcher
	if launcher == nil {
		launcher = NewLauncher(app, "", o.logger)
	}

	w := &MainWin{
		window:      app.NewWindow("epack - " + filepath.Base(archivePath)),
		lifecycle:   lifecycle,
		backend:     backend,
		launcher:    launcher,
		fs:          o.fs,
		logger:      o.logger.With(zap.String("archive", archivePath)),
		archivePath: archivePath,
		destFolder:  filepath.Dir(archivePath),
		postAction:  o.settings.PostAction,
		state:       StateListing,
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.build(o.settings)
	w.window.Resize(o.settings.WindowSize)
	w.window.SetCloseIntercept(w.close)

	w.backend.ListContent(w.ctx, archivePath, w.onListDone)
	return w
}

// build 构建界面
func (w *MainWin) build(settings Settings) {
	w.header = widget.NewLabel("Reading " + filepath.Base(w.archivePath) + "...")
	w.header.Truncation = fyne.TextTruncateEllipsis
	w.spinner = widget.NewProgressBarInfinite()
	w.headerBox = container.NewVBox(w.header, w.spinner)

	w.list = widget.NewList(
		func() int { return len(w.entries) },
		func() fyne.CanvasObject {
			label := widget.NewLabel("")
			label.Truncation = fyne.TextTruncateEllipsis
			return container.NewBorder(nil, nil, widget.NewIcon(theme.FileIcon()), nil, label)
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id < 0 || id >= len(w.entries) {
				return
			}
			row := item.(*fyne.Container)
			row.Objects[0].(*widget.Label).SetText(w.entries[id])
			row.Objects[1].(*widget.Icon).SetResource(entryIcon(w.entries[id]))
		},
	)

	w.destButton = NewDestinationButton(w.window, w.destFolder)
	w.destButton.OnChosen = w.setDestFolder

	w.deleteCheck = widget.NewCheck("Delete archive after extraction", nil)
	w.deleteCheck.SetChecked(settings.DeleteArchive)

	w.folderCheck = widget.NewCheck("Create a folder for the content", func(bool) {
		w.refreshDestination()
	})
	w.folderCheck.SetChecked(settings.CreateFolder)

	w.extractBtn = widget.NewButtonWithIcon(extractLabel(w.postAction), theme.DownloadIcon(), w.extract)
	w.extractBtn.Importance = widget.HighImportance
	w.extractBtn.Disable()

	w.actionBtn = widget.NewButtonWithIcon("", theme.MenuDropUpIcon(), w.showActionMenu)

	options := container.NewVBox(
		widget.NewLabel("Extract to:"),
		w.destButton,
		w.folderCheck,
		w.deleteCheck,
		container.NewBorder(nil, nil, nil, w.actionBtn, w.extractBtn),
	)

	w.refreshDestination()
	w.window.SetContent(container.NewBorder(w.headerBox, options, nil, nil, w.list))
}

// Show 显示窗口
func (w *MainWin) Show() {
	w.window.Show()
}

// State 当前状态
func (w *MainWin) State() State {
	return w.state
}

// onListDone 列表完成回调
func (w *MainWin) onListDone(entries []string, err error) {
	w.spinner.Stop()
	w.headerBox.Remove(w.spinner)

	if err != nil {
		w.header.SetText("Cannot read " + filepath.Base(w.archivePath))
		w.logger.Warn("listing failed", zap.Error(err))
		w.showError(err)
		return
	}

	// 按后端给出的顺序逐条追加，不排序不去重
	w.entries = append(w.entries, entries...)
	w.list.Refresh()

	w.header.SetText("Archive: " + filepath.Base(w.archivePath))
	w.listed = true
	w.extractBtn.Enable()
	w.setState(StateReady)
}

// setDestFolder 选定目标目录
func (w *MainWin) setDestFolder(path string) {
	w.destFolder = path
	w.refreshDestination()
}

// targetDir 实际的解压目录
func (w *MainWin) targetDir() string {
	if w.folderCheck.Checked {
		return filepath.Join(w.destFolder, epack.ArchiveStem(w.archivePath))
	}
	return w.destFolder
}

// refreshDestination 重新计算显示的目标目录
func (w *MainWin) refreshDestination() {
	if w.destButton == nil {
		return
	}
	w.destButton.SetText(w.targetDir())
}

// setPostAction 设置解压后动作并更新按钮文字
func (w *MainWin) setPostAction(action PostAction) {
	w.postAction = action
	w.extractBtn.SetText(extractLabel(action))
}

// actionMenu 解压动作菜单
func (w *MainWin) actionMenu() *fyne.Menu {
	return fyne.NewMenu("",
		fyne.NewMenuItem(extractLabel(PostActionFileManager), func() { w.setPostAction(PostActionFileManager) }),
		fyne.NewMenuItem(extractLabel(PostActionTerminal), func() { w.setPostAction(PostActionTerminal) }),
		fyne.NewMenuItem("Extract and close", func() { w.setPostAction(PostActionClose) }),
	)
}

// showActionMenu 在下拉按钮上方弹出菜单
func (w *MainWin) showActionMenu() {
	driver := fyne.CurrentApp().Driver()
	pos := driver.AbsolutePositionForObject(w.actionBtn)
	widget.ShowPopUpMenuAtPosition(w.actionMenu(), w.window.Canvas(), pos.AddXY(0, w.actionBtn.Size().Height))
}

// extract 开始解压
func (w *MainWin) extract() {
	if w.state != StateReady {
		return
	}

	target := w.targetDir()
	w.setState(StateExtracting)
	w.extractBtn.Disable()
	w.showProgress()

	exists, err := afero.Exists(w.fs, target)
	if err != nil {
		w.failExtraction(goerr.Wrap(err, "cannot access destination folder", goerr.V("path", target)))
		return
	}
	if !exists {
		// 只创建最后一级目录，上级目录缺失时失败
		if err := w.fs.Mkdir(target, 0755); err != nil {
			w.failExtraction(goerr.Wrap(err, "cannot create destination folder", goerr.V("path", target)))
			return
		}
		w.logger.Info("destination folder created", zap.String("path", target))
	}

	ctx, cancel := context.WithCancel(w.ctx)
	w.cancelExtract = cancel
	w.logger.Info("extraction started", zap.String("dest", target), zap.String("post_action", string(w.postAction)))
	w.backend.Extract(ctx, w.archivePath, target, w.onExtractProgress, w.onExtractDone)
}

// onExtractProgress 进度回调
func (w *MainWin) onExtractProgress(fraction float64, name string) {
	if w.progress == nil {
		return
	}
	w.progress.bar.SetValue(fraction)
	w.progress.label.SetText(name)
}

// onExtractDone 解压完成回调
func (w *MainWin) onExtractDone(err error) {
	if w.cancelExtract != nil {
		w.cancelExtract()
		w.cancelExtract = nil
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			w.logger.Info("extraction cancelled")
			w.hideProgress()
			w.extractBtn.Enable()
			w.setState(StateReady)
			return
		}
		w.logger.Error("extraction failed", zap.Error(err))
		w.failExtraction(err)
		return
	}

	w.hideProgress()
	target := w.targetDir()

	if w.deleteCheck.Checked {
		if err := w.fs.Remove(w.archivePath); err != nil {
			w.logger.Error("cannot delete archive", zap.Error(err))
			w.showError(goerr.Wrap(err, "extraction succeeded but the archive could not be deleted",
				goerr.V("path", w.archivePath)))
			return
		}
		w.logger.Info("archive deleted")
	}

	w.runPostAction(target)
	w.setState(StateDone)
	w.lifecycle.Quit()
}

// runPostAction 执行解压后动作，失败只记录日志
func (w *MainWin) runPostAction(target string) {
	var err error
	switch w.postAction {
	case PostActionFileManager:
		err = w.launcher.OpenFileManager(target)
	case PostActionTerminal:
		err = w.launcher.OpenTerminal(target)
	default:
		return
	}

	if err != nil {
		w.logger.Warn("post-extraction action failed", zap.String("action", string(w.postAction)), zap.Error(err))
	}
}

// cancelExtraction 取消按钮
func (w *MainWin) cancelExtraction() {
	if w.cancelExtract == nil {
		return
	}
	w.progress.cancel.Disable()
	w.progress.label.SetText("Cancelling...")
	w.cancelExtract()
}

// failExtraction 关闭进度弹窗并显示错误
func (w *MainWin) failExtraction(err error) {
	w.hideProgress()
	w.showError(err)
}

// showProgress 显示进度弹窗
func (w *MainWin) showProgress() {
	p := &progressPopup{
		label: widget.NewLabel("Preparing..."),
		bar:   widget.NewProgressBar(),
	}
	p.label.Truncation = fyne.TextTruncateEllipsis
	p.cancel = widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), w.cancelExtraction)

	content := container.NewVBox(p.label, p.bar, container.NewCenter(p.cancel))
	p.dialog = dialog.NewCustomWithoutButtons("Extracting "+filepath.Base(w.archivePath), content, w.window)
	p.dialog.Resize(fyne.NewSize(w.window.Canvas().Size().Width*0.8, p.dialog.MinSize().Height))
	p.dialog.Show()
	w.progress = p
}

// hideProgress 关闭进度弹窗
func (w *MainWin) hideProgress() {
	if w.progress == nil {
		return
	}
	w.progress.dialog.Hide()
	w.progress = nil
}

// showError 显示错误，Continue 回到窗口，Exit 退出应用
func (w *MainWin) showError(err error) {
	w.setState(StateError)

	p := &errorPopup{message: widget.NewLabel(err.Error())}
	p.message.Wrapping = fyne.TextWrapWord
	p.resume = widget.NewButton("Continue", w.dismissError)
	p.exit = widget.NewButtonWithIcon("Exit", theme.LogoutIcon(), w.lifecycle.Quit)
	p.exit.Importance = widget.DangerImportance

	p.dialog = dialog.NewCustomWithoutButtons("Error", p.message, w.window)
	p.dialog.SetButtons([]fyne.CanvasObject{p.resume, p.exit})
	p.dialog.Resize(fyne.NewSize(w.window.Canvas().Size().Width*0.8, p.dialog.MinSize().Height))
	p.dialog.Show()
	w.errPopup = p
}

// dismissError 关闭错误弹窗，窗口保持可用
func (w *MainWin) dismissError() {
	if w.errPopup != nil {
		w.errPopup.dialog.Hide()
		w.errPopup = nil
	}

	if !w.listed {
		// 列表失败时没有可解压的内容
		return
	}
	w.extractBtn.Enable()
	w.setState(StateReady)
}

// close 关闭窗口：取消后台任务并退出
func (w *MainWin) close() {
	w.logger.Debug("main window closed", zap.Stringer("state", w.state))
	w.cancel()
	w.lifecycle.Quit()
}

func (w *MainWin) setState(state State) {
	if w.state != state {
		w.logger.Debug("state changed", zap.Stringer("from", w.state), zap.Stringer("to", state))
	}
	w.state = state
}
