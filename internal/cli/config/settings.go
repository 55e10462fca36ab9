package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Window 初始窗口大小
type Window struct {
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// File 配置文件内容
type File struct {
	DeleteArchive bool     `yaml:"delete_archive"`
	CreateFolder  bool     `yaml:"create_folder"`
	PostAction    string   `yaml:"post_action"`
	Passwords     []string `yaml:"passwords"`
	Terminal      string   `yaml:"terminal"`
	ShowAllFiles  bool     `yaml:"show_all_files"`
	Window        Window   `yaml:"window"`
	MaxFileSize   int64    `yaml:"max_file_size"`
}

// DefaultFile 配置文件不存在时使用的默认值
func DefaultFile() *File {
	return &File{
		PostAction: "close",
		Window:     Window{Width: 480, Height: 560},
	}
}

// Validate 校验配置值
func (f *File) Validate() error {
	switch f.PostAction {
	case "close", "fm", "term":
	default:
		return goerr.New("unknown post_action, must be one of close, fm, term",
			goerr.V("post_action", f.PostAction))
	}

	if f.Window.Width < 0 || f.Window.Height < 0 {
		return goerr.New("window size must not be negative",
			goerr.V("width", f.Window.Width), goerr.V("height", f.Window.Height))
	}
	if f.MaxFileSize < 0 {
		return goerr.New("max_file_size must not be negative", goerr.V("max_file_size", f.MaxFileSize))
	}
	return nil
}

// Settings 配置文件位置
type Settings struct {
	Path string
}

// Flags 配置文件相关的命令行参数
func (c *Settings) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Settings file (default: $XDG_CONFIG_HOME/epack/config.yaml)",
			Destination: &c.Path,
			Sources:     cli.EnvVars("EPACK_CONFIG"),
		},
	}
}

// Configure 读取并校验配置文件
//
// 默认位置的文件不存在时返回默认值，显式指定的文件不存在时返回错误。
func (c *Settings) Configure() (*File, error) {
	path, explicit := c.Path, true
	if path == "" {
		path, explicit = DefaultPath(), false
	}

	settings := DefaultFile()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return nil, goerr.Wrap(err, "failed to read settings file", goerr.V("path", path))
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, goerr.Wrap(err, "failed to parse settings file", goerr.V("path", path))
	}
	if err := settings.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid settings file", goerr.V("path", path))
	}
	return settings, nil
}

// DefaultPath 默认配置文件路径 $XDG_CONFIG_HOME/epack/config.yaml，
// 未设置时使用系统配置目录，均无法解析时返回空字符串
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "epack", "config.yaml")
}
