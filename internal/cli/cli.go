package cli

import (
	"context"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mirbf/epack"
	"github.com/mirbf/epack/internal/cli/config"
	"github.com/mirbf/epack/internal/gui"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const appID = "io.github.mirbf.epack"

// Run 解析命令行并启动界面
func Run(ctx context.Context, args []string) error {
	var loggerCfg config.Logger
	var settingsCfg config.Settings
	var logger *zap.Logger

	cmd := &cli.Command{
		Name:      "epack",
		Usage:     "Extract archives with a small desktop window",
		ArgsUsage: "[ARCHIVE]",
		Flags:     append(loggerCfg.Flags(), settingsCfg.Flags()...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}
			return ctx, nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			settings, err := settingsCfg.Configure()
			if err != nil {
				return err
			}
			logger.Debug("settings loaded", zap.String("post_action", settings.PostAction))

			return launch(logger, settings, decide(afero.NewOsFs(), supported, c.Args().Slice()))
		},
	}

	if err := cmd.Run(ctx, args); err != nil {
		if logger == nil {
			logger = zap.NewNop()
		}
		logger.Error("CLI execution failed", zap.Error(err))
		return err
	}

	if logger != nil {
		_ = logger.Sync()
	}
	return nil
}

// windowKind 启动时打开的窗口
type windowKind int

const (
	windowChooser windowKind = iota
	windowMain
	windowError
)

// startup 启动决定
type startup struct {
	kind    windowKind
	path    string
	message string
}

func supported(path string) bool {
	ok, _ := epack.IsSupported(path)
	return ok
}

// decide 根据参数决定打开哪个窗口
func decide(fs afero.Fs, isSupported func(path string) bool, args []string) startup {
	switch len(args) {
	case 0:
		return startup{kind: windowChooser}
	case 1:
	default:
		return startup{kind: windowError, message: fmt.Sprintf("Only one archive can be opened at a time, got %d: %s",
			len(args), strings.Join(args, ", "))}
	}

	path := args[0]
	info, err := fs.Stat(path)
	if err != nil {
		return startup{kind: windowError, path: path, message: "Cannot open " + path + ": file not found"}
	}
	if info.IsDir() {
		return startup{kind: windowError, path: path, message: path + " is a folder, not an archive"}
	}
	if !isSupported(path) {
		return startup{kind: windowError, path: path, message: "Unsupported archive format: " + path}
	}
	return startup{kind: windowMain, path: path}
}

// guiSettings 配置文件转换为窗口选项
func guiSettings(file *config.File) gui.Settings {
	settings := gui.DefaultSettings()
	settings.DeleteArchive = file.DeleteArchive
	settings.CreateFolder = file.CreateFolder
	settings.PostAction = gui.PostAction(file.PostAction)
	settings.ShowAllFiles = file.ShowAllFiles
	if file.Window.Width > 0 && file.Window.Height > 0 {
		settings.WindowSize = fyne.NewSize(file.Window.Width, file.Window.Height)
	}
	return settings
}

// launch 创建应用与窗口并进入事件循环
func launch(logger *zap.Logger, file *config.File, start startup) error {
	archiver, err := epack.NewArchiver(
		epack.WithLogger(logger),
		epack.WithDispatcher(fyne.Do),
		epack.WithPasswords(file.Passwords),
		epack.WithMaxFileSize(file.MaxFileSize),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create archiver")
	}

	fyneApp := app.NewWithID(appID)
	opts := []gui.Option{
		gui.WithLogger(logger),
		gui.WithSettings(guiSettings(file)),
		gui.WithLauncher(gui.NewLauncher(fyneApp, file.Terminal, logger)),
	}

	logger.Info("starting", zap.Int("window", int(start.kind)), zap.String("path", start.path))
	switch start.kind {
	case windowChooser:
		chooser := gui.NewFileChooserWin(fyneApp, fyneApp, func(path string) {
			gui.NewMainWin(fyneApp, fyneApp, path, archiver, opts...).Show()
		}, opts...)
		chooser.Show()
	case windowError:
		logger.Warn("cannot start", zap.String("reason", start.message))
		gui.NewErrorWin(fyneApp, fyneApp, start.message).Show()
	default:
		gui.NewMainWin(fyneApp, fyneApp, start.path, archiver, opts...).Show()
	}

	fyneApp.Run()
	return nil
}
