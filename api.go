package epack

import (
	"context"
	"path/filepath"
	"time"
)

// ExtractResult 解压结果
type ExtractResult struct {
	ExtractedTo string        `json:"extracted_to"` // 解压到的目录
	FilesCount  int           `json:"files_count"`  // 解压的文件数量
	TotalSize   int64         `json:"total_size"`   // 总大小(字节)
	ProcessTime time.Duration `json:"process_time"` // 处理时间

	// PasswordUsed 是否使用了配置的密码
	PasswordUsed bool `json:"password_used"`

	// Warnings 被跳过或改名的条目
	Warnings []string `json:"warnings"`
}

// Options 列表与解压选项
type Options struct {
	Passwords    []string         `json:"passwords"`      // 尝试的密码列表
	MaxFileSize  int64            `json:"max_file_size"`  // 单文件大小限制，0表示不限制
	MaxTotalSize int64            `json:"max_total_size"` // 总大小限制，0表示不限制
	SkipHidden   bool             `json:"skip_hidden"`    // 跳过隐藏文件
	Progress     ProgressCallback `json:"-"`              // 进度回调

	// TotalEntries 预先已知的条目数，0表示解压前自动统计
	TotalEntries int `json:"-"`
}

// toConfig 转换为内部配置
func (o *Options) toConfig() extractConfig {
	config := defaultExtractConfig()
	if o == nil {
		return config
	}
	config.Passwords = o.Passwords
	config.MaxFileSize = o.MaxFileSize
	config.MaxTotalSize = o.MaxTotalSize
	config.SkipHidden = o.SkipHidden
	return config
}

// List 列出压缩包内容
//
// 返回的条目按归档顺序排列，名称为UTF-8，目录以 "/" 结尾。
func List(ctx context.Context, archivePath string, options *Options) ([]string, error) {
	return newArchiveService().listWithSmartPasswordTries(ctx, archivePath, options.toConfig())
}

// ExtractTo 解压压缩包到指定目录
//
// 参数:
//
//	archivePath: 压缩包路径
//	outputDir: 输出目录（不存在时自动创建）
//	options: 解压选项(可以为nil使用默认设置)
//
// 功能:
//   - 自动检测压缩包格式(ZIP/RAR/7Z/TAR/TAR.GZ/TAR.BZ2/TAR.XZ/TAR.ZST/TAR.LZ4)
//   - 依次尝试配置的密码
//   - 按已处理条目数报告进度，取消 ctx 会在下一次读取时停止
func ExtractTo(ctx context.Context, archivePath, outputDir string, options *Options) (*ExtractResult, error) {
	service := newArchiveService()
	config := options.toConfig()
	startTime := time.Now()

	var callback ProgressCallback
	total := 0
	if options != nil && options.Progress != nil {
		total = options.TotalEntries
		if total <= 0 {
			entries, err := service.listWithSmartPasswordTries(ctx, archivePath, config)
			if err != nil {
				return nil, err
			}
			total = len(entries)
		}
		callback = monotonicProgress(options.Progress)
	}

	result, usedPassword, err := service.extractWithSmartPasswordTries(ctx, archivePath, outputDir, config,
		func() ProgressReporter { return NewProgressReporter(total, callback) })
	if err != nil {
		return nil, err
	}

	return &ExtractResult{
		ExtractedTo:  outputDir,
		FilesCount:   result.Files,
		TotalSize:    result.TotalSize,
		ProcessTime:  time.Since(startTime),
		PasswordUsed: usedPassword != "",
		Warnings:     result.Warnings,
	}, nil
}

// QuickExtract 解压到压缩包旁边与其同名的目录
func QuickExtract(ctx context.Context, archivePath string) (string, error) {
	outputDir := filepath.Join(filepath.Dir(archivePath), ArchiveStem(archivePath))
	if _, err := ExtractTo(ctx, archivePath, outputDir, nil); err != nil {
		return "", err
	}
	return outputDir, nil
}

// IsSupported 检查文件是否支持解压
//
// 返回:
//
//	bool: 是否支持
//	string: 格式名称
func IsSupported(archivePath string) (bool, string) {
	return isSupportedInternal(archivePath)
}

// GetSupportedFormats 获取支持的格式列表
func GetSupportedFormats() []string {
	formats := NewFormatExtractorManager().GetSupportedFormats()
	names := make([]string, 0, len(formats))
	for _, format := range formats {
		names = append(names, format.String())
	}
	return names
}

// monotonicProgress 保证密码重试时进度不回退
func monotonicProgress(callback ProgressCallback) ProgressCallback {
	var highest float64
	return func(fraction float64, filename string) {
		if fraction < highest {
			fraction = highest
		}
		highest = fraction
		callback(fraction, filename)
	}
}
