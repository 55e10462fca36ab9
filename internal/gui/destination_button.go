package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// DestinationButton 目录选择按钮，文字由左对齐、超长省略的标签显示
type DestinationButton struct {
	widget.BaseWidget

	// OnChosen 用户选定目录后调用
	OnChosen func(path string)

	window  fyne.Window
	button  *widget.Button
	label   *widget.Label
	content fyne.CanvasObject
}

// NewDestinationButton 创建目录选择按钮
func NewDestinationButton(window fyne.Window, text string) *DestinationButton {
	b := &DestinationButton{window: window}

	b.label = widget.NewLabel(text)
	b.label.Alignment = fyne.TextAlignLeading
	b.label.Truncation = fyne.TextTruncateEllipsis

	// 按钮本身不显示文字，标签叠放在按钮上
	b.button = widget.NewButton("", b.choose)
	icon := widget.NewIcon(theme.FolderOpenIcon())
	b.content = container.NewStack(b.button, container.NewBorder(nil, nil, icon, nil, b.label))

	b.ExtendBaseWidget(b)
	return b
}

// SetText 只修改显示的文字
func (b *DestinationButton) SetText(text string) {
	b.label.SetText(text)
}

// Text 返回显示的文字
func (b *DestinationButton) Text() string {
	return b.label.Text
}

// CreateRenderer 实现 fyne.Widget
func (b *DestinationButton) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.content)
}

// choose 打开目录选择对话框
func (b *DestinationButton) choose() {
	picker := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		b.chosen(uri.Path())
	}, b.window)

	if location, err := storage.ListerForURI(storage.NewFileURI(b.label.Text)); err == nil {
		picker.SetLocation(location)
	}
	picker.Resize(b.window.Canvas().Size())
	picker.Show()
}

// chosen 上报选定的目录
func (b *DestinationButton) chosen(path string) {
	if b.OnChosen != nil {
		b.OnChosen(path)
	}
}
