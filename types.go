package epack

import (
	"errors"
	"fmt"
)

// extractConfig 解压配置 (内部使用)
type extractConfig struct {
	// Passwords 密码列表，按顺序尝试（空密码总是最先尝试）
	Passwords []string

	// MaxFileSize 单文件大小限制（字节），0表示不限制
	MaxFileSize int64

	// MaxTotalSize 总解压大小限制（字节），0表示不限制
	MaxTotalSize int64

	// OverwriteExisting 是否覆盖已存在的文件
	OverwriteExisting bool

	// AutoRename 不覆盖时自动重命名重复文件
	AutoRename bool

	// SkipHidden 是否跳过隐藏文件
	SkipHidden bool
}

// defaultExtractConfig 返回默认配置 (内部使用)
func defaultExtractConfig() extractConfig {
	return extractConfig{
		MaxFileSize:       0,
		MaxTotalSize:      0,
		OverwriteExisting: true,
		AutoRename:        false,
		SkipHidden:        false,
	}
}

// ArchiveFormat 压缩格式枚举
type ArchiveFormat string

const (
	FormatZIP     ArchiveFormat = "zip"
	FormatRAR     ArchiveFormat = "rar"
	Format7Z      ArchiveFormat = "7z"
	FormatTAR     ArchiveFormat = "tar"
	FormatTARGZ   ArchiveFormat = "tar.gz"
	FormatTARBZ2  ArchiveFormat = "tar.bz2"
	FormatTARXZ   ArchiveFormat = "tar.xz"
	FormatTARZST  ArchiveFormat = "tar.zst"
	FormatTARLZ4  ArchiveFormat = "tar.lz4"
	FormatUnknown ArchiveFormat = "unknown"
)

// String 返回格式字符串
func (f ArchiveFormat) String() string {
	return string(f)
}

// IsTar 是否为TAR系列格式
func (f ArchiveFormat) IsTar() bool {
	switch f {
	case FormatTAR, FormatTARGZ, FormatTARBZ2, FormatTARXZ, FormatTARZST, FormatTARLZ4:
		return true
	}
	return false
}

// ExtractError 解压错误类型
type ExtractError struct {
	Type    ErrorType
	Message string
	Path    string
	Cause   error
}

// Error 实现error接口
func (e *ExtractError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path: %s)", e.Type, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap 返回原始错误
func (e *ExtractError) Unwrap() error {
	return e.Cause
}

// ErrorType 错误类型枚举
type ErrorType string

const (
	// ErrUnsupportedFormat 不支持的格式
	ErrUnsupportedFormat ErrorType = "UNSUPPORTED_FORMAT"

	// ErrPasswordRequired 需要密码
	ErrPasswordRequired ErrorType = "PASSWORD_REQUIRED"

	// ErrInvalidPassword 密码错误
	ErrInvalidPassword ErrorType = "INVALID_PASSWORD"

	// ErrCorruptedArchive 压缩包损坏
	ErrCorruptedArchive ErrorType = "CORRUPTED_ARCHIVE"

	// ErrPathTraversal 路径遍历攻击
	ErrPathTraversal ErrorType = "PATH_TRAVERSAL"

	// ErrFileTooLarge 文件过大
	ErrFileTooLarge ErrorType = "FILE_TOO_LARGE"

	// ErrInvalidPath 无效路径
	ErrInvalidPath ErrorType = "INVALID_PATH"

	// ErrPermissionDenied 权限拒绝
	ErrPermissionDenied ErrorType = "PERMISSION_DENIED"

	// ErrDiskFull 磁盘空间不足
	ErrDiskFull ErrorType = "DISK_FULL"

	// ErrCancelled 操作被取消
	ErrCancelled ErrorType = "CANCELLED"

	// ErrInternalError 内部错误
	ErrInternalError ErrorType = "INTERNAL_ERROR"
)

// String 返回错误类型字符串
func (et ErrorType) String() string {
	return string(et)
}

// NewExtractError 创建解压错误
func NewExtractError(errType ErrorType, message, path string, cause error) *ExtractError {
	return &ExtractError{
		Type:    errType,
		Message: message,
		Path:    path,
		Cause:   cause,
	}
}

// IsErrorType 判断错误链中是否包含指定类型的解压错误
func IsErrorType(err error, errType ErrorType) bool {
	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		return extractErr.Type == errType
	}
	return false
}
