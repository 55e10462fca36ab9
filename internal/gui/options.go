package gui

import (
	"fyne.io/fyne/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// PostAction 解压完成后的动作
type PostAction string

const (
	PostActionClose       PostAction = "close"
	PostActionFileManager PostAction = "fm"
	PostActionTerminal    PostAction = "term"
)

// Settings 窗口的初始选项
type Settings struct {
	DeleteArchive bool
	CreateFolder  bool
	PostAction    PostAction
	ShowAllFiles  bool
	WindowSize    fyne.Size
}

// DefaultSettings 默认选项
func DefaultSettings() Settings {
	return Settings{
		PostAction: PostActionClose,
		WindowSize: fyne.NewSize(480, 560),
	}
}

type options struct {
	fs       afero.Fs
	logger   *zap.Logger
	launcher Launcher
	settings Settings
}

// Option 窗口构造选项
type Option func(*options)

// WithFs 设置文件系统（目标目录创建、存在性检查与删除压缩包）
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLauncher 设置解压后动作的执行器
func WithLauncher(launcher Launcher) Option {
	return func(o *options) {
		o.launcher = launcher
	}
}

// WithSettings 设置初始选项
func WithSettings(settings Settings) Option {
	return func(o *options) {
		o.settings = settings
	}
}

func buildOptions(opts []Option) *options {
	o := &options{
		fs:       afero.NewOsFs(),
		logger:   zap.NewNop(),
		settings: DefaultSettings(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.settings.WindowSize.Width <= 0 || o.settings.WindowSize.Height <= 0 {
		o.settings.WindowSize = DefaultSettings().WindowSize
	}
	return o
}
