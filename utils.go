package epack

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GenerateUniqueFileName 生成唯一文件名（处理重复文件）
func GenerateUniqueFileName(filePath string) string {
	if _, err := os.Lstat(filePath); os.IsNotExist(err) {
		return filePath
	}

	dir := filepath.Dir(filePath)
	filename := filepath.Base(filePath)
	ext := filepath.Ext(filename)
	nameWithoutExt := strings.TrimSuffix(filename, ext)

	// 尝试添加数字后缀
	for i := 1; i <= 999; i++ {
		newPath := filepath.Join(dir, fmt.Sprintf("%s_%d%s", nameWithoutExt, i, ext))
		if _, err := os.Lstat(newPath); os.IsNotExist(err) {
			return newPath
		}
	}

	// 数字后缀用完时使用时间戳
	timestamp := time.Now().Format("20060102_150405")
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", nameWithoutExt, timestamp, ext))
}

// HandleFileConflict 处理文件冲突
func HandleFileConflict(targetPath string, config extractConfig) (string, error) {
	if _, err := os.Lstat(targetPath); os.IsNotExist(err) {
		return targetPath, nil
	}

	if config.OverwriteExisting {
		return targetPath, nil
	}

	if config.AutoRename {
		return GenerateUniqueFileName(targetPath), nil
	}

	return "", NewExtractError(ErrPermissionDenied, "file already exists and overwriting is disabled", targetPath, nil)
}

// RemoveDuplicateStrings 去除字符串切片中的重复项，保持原有顺序
func RemoveDuplicateStrings(slice []string) []string {
	seen := make(map[string]bool)
	result := []string{}

	for _, item := range slice {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}

	return result
}

// classifyIOError 把文件系统错误映射为解压错误
func classifyIOError(err error, message, path string) error {
	if err == nil {
		return nil
	}

	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newCancelledError(path, err)
	}

	if errors.Is(err, fs.ErrPermission) {
		return NewExtractError(ErrPermissionDenied, message, path, err)
	}

	if strings.Contains(strings.ToLower(err.Error()), "no space left") {
		return NewExtractError(ErrDiskFull, message, path, err)
	}

	return NewExtractError(ErrInternalError, message, path, err)
}

// newCancelledError 创建取消错误，保留 context 的原始错误以便 errors.Is 判断
func newCancelledError(path string, cause error) error {
	if cause == nil {
		cause = context.Canceled
	}
	return NewExtractError(ErrCancelled, "operation cancelled", path, cause)
}
