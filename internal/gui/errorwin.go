package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// ErrorWin 启动阶段无法继续时显示的窗口，任何关闭方式都会退出应用
type ErrorWin struct {
	window    fyne.Window
	lifecycle Lifecycle
	message   *widget.Label
	ok        *widget.Button
	closed    bool
}

// NewErrorWin 创建错误窗口
func NewErrorWin(app fyne.App, lifecycle Lifecycle, message string) *ErrorWin {
	w := &ErrorWin{
		window:    app.NewWindow("epack - Error"),
		lifecycle: lifecycle,
		message:   widget.NewLabel(message),
	}
	w.message.Wrapping = fyne.TextWrapWord
	w.ok = widget.NewButton("OK", w.dismiss)
	w.ok.Importance = widget.HighImportance

	w.window.SetContent(container.NewBorder(nil, container.NewCenter(w.ok), widget.NewIcon(theme.ErrorIcon()), nil, w.message))
	w.window.Resize(fyne.NewSize(420, 160))
	w.window.SetCloseIntercept(w.dismiss)
	return w
}

// Show 显示窗口
func (w *ErrorWin) Show() {
	w.window.Show()
}

// dismiss OK按钮与关闭窗口都会退出
func (w *ErrorWin) dismiss() {
	if w.closed {
		return
	}
	w.closed = true
	w.lifecycle.Quit()
}
