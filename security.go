package epack

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

// SecurityValidator 安全验证器接口
type SecurityValidator interface {
	// ValidatePath 验证条目路径安全性
	ValidatePath(path, baseDir string) error

	// ValidateFileSize 验证文件大小
	ValidateFileSize(size, maxSize int64) error

	// ValidateTotalSize 验证总大小
	ValidateTotalSize(currentSize, additionalSize, maxSize int64) error

	// SanitizePath 清理路径
	SanitizePath(path string) string
}

// defaultSecurityValidator 默认安全验证器实现
type defaultSecurityValidator struct {
	allowAbsolutePaths bool
	windowsRules       bool
	maxPathLength      int
}

// NewSecurityValidator 创建新的安全验证器
func NewSecurityValidator() SecurityValidator {
	return &defaultSecurityValidator{
		allowAbsolutePaths: false,
		windowsRules:       runtime.GOOS == "windows",
		maxPathLength:      4096,
	}
}

// ValidatePath 验证路径安全性
func (v *defaultSecurityValidator) ValidatePath(path, baseDir string) error {
	if path == "" {
		return NewExtractError(ErrInvalidPath, "empty entry name", path, nil)
	}

	if len(path) > v.maxPathLength {
		return NewExtractError(ErrInvalidPath,
			fmt.Sprintf("entry name too long (%d > %d)", len(path), v.maxPathLength),
			path, nil)
	}

	// 绝对路径必须在清理前检查
	if !v.allowAbsolutePaths && (strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`) || filepath.IsAbs(path)) {
		return NewExtractError(ErrPathTraversal, "absolute entry path", path, nil)
	}

	if err := v.checkPathTraversal(path, baseDir); err != nil {
		return err
	}

	if err := v.checkDangerousCharacters(path); err != nil {
		return err
	}

	if v.windowsRules {
		return v.checkReservedNames(v.SanitizePath(path))
	}
	return nil
}

// ValidateFileSize 验证文件大小
func (v *defaultSecurityValidator) ValidateFileSize(size, maxSize int64) error {
	if size < 0 {
		return NewExtractError(ErrInvalidPath, "negative file size", "", nil)
	}

	if maxSize > 0 && size > maxSize {
		return NewExtractError(ErrFileTooLarge,
			fmt.Sprintf("file size exceeds limit (%d > %d)", size, maxSize),
			"", nil)
	}

	return nil
}

// ValidateTotalSize 验证总大小
func (v *defaultSecurityValidator) ValidateTotalSize(currentSize, additionalSize, maxSize int64) error {
	if maxSize <= 0 {
		return nil // 不限制大小
	}

	totalSize := currentSize + additionalSize
	if totalSize > maxSize {
		return NewExtractError(ErrFileTooLarge,
			fmt.Sprintf("total size exceeds limit (%d > %d)", totalSize, maxSize),
			"", nil)
	}

	return nil
}

// SanitizePath 清理路径
func (v *defaultSecurityValidator) SanitizePath(path string) string {
	// 标准化路径分隔符（压缩包里可能混用反斜杠）
	path = strings.ReplaceAll(path, `\`, "/")

	if !v.allowAbsolutePaths {
		path = strings.TrimLeft(path, "/")
	}

	path = filepath.ToSlash(filepath.Clean(filepath.FromSlash(path)))

	return v.removeControlCharacters(path)
}

// checkPathTraversal 检查路径遍历攻击
func (v *defaultSecurityValidator) checkPathTraversal(path, baseDir string) error {
	// 逐段检查 ".."，允许 ".hidden" 这类普通文件名
	for _, segment := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if segment == ".." {
			return NewExtractError(ErrPathTraversal, "entry path escapes destination", path, nil)
		}
	}

	if baseDir == "" {
		return nil
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return NewExtractError(ErrInvalidPath, "cannot resolve destination", baseDir, err)
	}

	absPath, err := filepath.Abs(filepath.Join(baseDir, v.SanitizePath(path)))
	if err != nil {
		return NewExtractError(ErrInvalidPath, "cannot resolve entry path", path, err)
	}

	relPath, err := filepath.Rel(absBase, absPath)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return NewExtractError(ErrPathTraversal, "entry path escapes destination", path, nil)
	}

	return nil
}

// checkDangerousCharacters 检查危险字符
func (v *defaultSecurityValidator) checkDangerousCharacters(path string) error {
	for _, char := range path {
		// 忽略替换字符U+FFFD，它可能来自编码转换
		if unicode.IsControl(char) && char != '\uFFFD' {
			return NewExtractError(ErrInvalidPath,
				fmt.Sprintf("entry path contains control character U+%04X", char),
				path, nil)
		}

		if v.windowsRules && strings.ContainsRune(`<>:"|*`, char) {
			return NewExtractError(ErrInvalidPath,
				fmt.Sprintf("entry path contains reserved character %c", char),
				path, nil)
		}
	}

	return nil
}

// checkReservedNames 检查Windows保留名称
func (v *defaultSecurityValidator) checkReservedNames(path string) error {
	reservedNames := []string{
		"CON", "PRN", "AUX", "NUL",
		"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
		"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
	}

	for _, component := range strings.Split(path, "/") {
		name := strings.ToUpper(component)
		if dotIndex := strings.LastIndex(name, "."); dotIndex > 0 {
			name = name[:dotIndex]
		}

		for _, reserved := range reservedNames {
			if name == reserved {
				return NewExtractError(ErrInvalidPath,
					fmt.Sprintf("entry path contains reserved name %s", reserved),
					path, nil)
			}
		}
	}

	return nil
}

// removeControlCharacters 移除控制字符
func (v *defaultSecurityValidator) removeControlCharacters(path string) string {
	var result strings.Builder
	for _, char := range path {
		if !unicode.IsControl(char) {
			result.WriteRune(char)
		}
	}
	return result.String()
}

// PathSafeJoin 安全地连接路径
func PathSafeJoin(base, path string) (string, error) {
	validator := NewSecurityValidator()

	if err := validator.ValidatePath(path, base); err != nil {
		return "", err
	}

	result := filepath.Join(base, filepath.FromSlash(validator.SanitizePath(path)))

	// 最终验证
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}

	absResult, err := filepath.Abs(result)
	if err != nil {
		return "", err
	}

	relPath, err := filepath.Rel(absBase, absResult)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", NewExtractError(ErrPathTraversal, "entry path escapes destination", path, nil)
	}

	return result, nil
}

// ValidateExtractConfig 验证解压配置
func ValidateExtractConfig(config extractConfig) error {
	if config.MaxFileSize < 0 {
		return NewExtractError(ErrInvalidPath, "max file size must not be negative", "", nil)
	}

	if config.MaxTotalSize < 0 {
		return NewExtractError(ErrInvalidPath, "max total size must not be negative", "", nil)
	}

	return nil
}
