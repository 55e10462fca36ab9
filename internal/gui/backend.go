package gui

import (
	"context"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"github.com/m-mizutani/goerr/v2"
	"go.uber.org/zap"
)

// Backend 列表与解压的后端，回调在UI线程上触发
type Backend interface {
	// ListContent 列出压缩包内容，done 恰好调用一次
	ListContent(ctx context.Context, path string, done func(entries []string, err error))

	// Extract 解压到 dest，progress 零次或多次，随后 done 恰好调用一次
	Extract(ctx context.Context, path, dest string, progress func(fraction float64, name string), done func(err error))
}

// Lifecycle 应用生命周期，fyne.App 满足该接口
type Lifecycle interface {
	Quit()
}

// Launcher 执行解压后的动作
type Launcher interface {
	// OpenFileManager 在文件管理器中打开目录
	OpenFileManager(dir string) error

	// OpenTerminal 在终端中打开目录
	OpenTerminal(dir string) error
}

// desktopLauncher 通过桌面环境执行动作
type desktopLauncher struct {
	app      fyne.App
	terminal []string
	logger   *zap.Logger
}

// NewLauncher 创建桌面启动器，terminal 为空时按平台选择默认终端
func NewLauncher(app fyne.App, terminal string, logger *zap.Logger) Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &desktopLauncher{
		app:      app,
		terminal: terminalCommand(terminal),
		logger:   logger,
	}
}

// OpenFileManager 通过 file:// URL 交给系统默认程序
func (l *desktopLauncher) OpenFileManager(dir string) error {
	u, err := url.Parse(storage.NewFileURI(dir).String())
	if err != nil {
		return goerr.Wrap(err, "invalid folder path", goerr.V("dir", dir))
	}

	if err := l.app.OpenURL(u); err != nil {
		return goerr.Wrap(err, "cannot open file manager", goerr.V("dir", dir))
	}
	return nil
}

// OpenTerminal 在目录中启动终端，不等待其退出
func (l *desktopLauncher) OpenTerminal(dir string) error {
	if len(l.terminal) == 0 {
		return goerr.New("no terminal configured")
	}

	cmd := exec.Command(l.terminal[0], l.terminal[1:]...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return goerr.Wrap(err, "cannot start terminal",
			goerr.V("command", strings.Join(l.terminal, " ")),
			goerr.V("dir", dir))
	}

	l.logger.Info("terminal started", zap.Int("pid", cmd.Process.Pid), zap.String("dir", dir))
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// terminalCommand 解析终端命令
func terminalCommand(configured string) []string {
	if fields := strings.Fields(configured); len(fields) > 0 {
		return fields
	}
	if env := strings.Fields(os.Getenv("TERMINAL")); len(env) > 0 {
		return env
	}

	switch runtime.GOOS {
	case "darwin":
		return []string{"open", "-a", "Terminal", "."}
	case "windows":
		return []string{"cmd", "/C", "start", "cmd"}
	default:
		return []string{"x-terminal-emulator"}
	}
}
