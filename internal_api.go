package epack

import (
	"context"
	"os"
)

// archiveService 内部服务：格式识别、密码尝试与分派
type archiveService struct {
	detector FormatDetector
	manager  FormatExtractorManager
}

// newArchiveService 创建内部服务
func newArchiveService() *archiveService {
	return &archiveService{
		detector: NewFormatDetector(),
		manager:  NewFormatExtractorManager(),
	}
}

// resolveFormat 识别格式：魔数优先，扩展名其次
func (s *archiveService) resolveFormat(archivePath string) (ArchiveFormat, error) {
	stat, err := os.Stat(archivePath)
	if err != nil {
		return FormatUnknown, classifyIOError(err, "cannot access archive", archivePath)
	}
	if stat.IsDir() {
		return FormatUnknown, NewExtractError(ErrInvalidPath, "path is a directory", archivePath, nil)
	}

	format, err := s.detector.DetectFormat(archivePath)
	if err != nil {
		return FormatUnknown, classifyIOError(err, "cannot read archive", archivePath)
	}
	if format == FormatUnknown {
		format = detectByExtension(archivePath)
	}
	if format == FormatUnknown {
		return FormatUnknown, NewExtractError(ErrUnsupportedFormat, "unrecognized archive format", archivePath, nil)
	}
	return format, nil
}

// resolve 获取压缩包对应的遍历器
func (s *archiveService) resolve(archivePath string) (formatExtractor, error) {
	format, err := s.resolveFormat(archivePath)
	if err != nil {
		return nil, err
	}
	return s.manager.extractorFor(format, archivePath)
}

// listWithSmartPasswordTries 列出条目，头部加密时依次尝试密码
func (s *archiveService) listWithSmartPasswordTries(ctx context.Context, archivePath string, config extractConfig) ([]string, error) {
	extractor, err := s.resolve(archivePath)
	if err != nil {
		return nil, err
	}

	var entries []string
	_, err = newPasswordManager(config.Passwords).tryPasswords(archivePath, func(password string) error {
		var listErr error
		entries, listErr = listEntries(ctx, extractor, archivePath, password)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// extractWithSmartPasswordTries 智能密码尝试解压，newReporter 为每次尝试提供新的进度报告器
func (s *archiveService) extractWithSmartPasswordTries(
	ctx context.Context,
	archivePath, outputDir string,
	config extractConfig,
	newReporter func() ProgressReporter,
) (*extractResult, string, error) {
	if err := ValidateExtractConfig(config); err != nil {
		return nil, "", err
	}

	extractor, err := s.resolve(archivePath)
	if err != nil {
		return nil, "", err
	}

	var result *extractResult
	usedPassword, err := newPasswordManager(config.Passwords).tryPasswords(archivePath, func(password string) error {
		var extractErr error
		result, extractErr = extractEntries(ctx, extractor, archivePath, password, outputDir, config, newReporter())
		return extractErr
	})
	if err != nil {
		return nil, "", err
	}
	return result, usedPassword, nil
}

// isSupportedInternal 检查文件是否支持解压 (内部函数)
func isSupportedInternal(archivePath string) (bool, string) {
	format, err := newArchiveService().resolveFormat(archivePath)
	if err != nil {
		return false, ""
	}
	return true, string(format)
}
