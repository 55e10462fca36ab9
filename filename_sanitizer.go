package epack

import (
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"unicode/utf8"
)

// FilenameSanitizer 文件名安全化处理器
type FilenameSanitizer struct {
	// illegalPattern Windows文件名中的非法字符
	illegalPattern *regexp.Regexp
	// windowsRules 是否应用Windows命名规则
	windowsRules bool
	// maxLength 单个路径段的最大字节数
	maxLength int
}

// NewFilenameSanitizer 创建文件名安全化处理器
func NewFilenameSanitizer() *FilenameSanitizer {
	return &FilenameSanitizer{
		illegalPattern: regexp.MustCompile(`[<>:"\\|?*]`),
		windowsRules:   runtime.GOOS == "windows",
		maxLength:      255,
	}
}

// SanitizeFilename 安全化单个文件名（不含路径分隔符）
func (fs *FilenameSanitizer) SanitizeFilename(filename string) string {
	sanitized := strings.ReplaceAll(filename, "\x00", "")

	if fs.windowsRules {
		sanitized = fs.illegalPattern.ReplaceAllString(sanitized, "_")
		// Windows不允许以空格或点结尾
		sanitized = strings.TrimRight(sanitized, " .")
	}

	if sanitized == "" || sanitized == "." || sanitized == ".." {
		sanitized = "unnamed_file"
	}

	// 限制长度（防止文件名过长）
	if len(sanitized) > fs.maxLength {
		ext := filepath.Ext(sanitized)
		if len(ext) >= fs.maxLength {
			ext = ""
		}
		sanitized = truncateUTF8(strings.TrimSuffix(sanitized, ext), fs.maxLength-len(ext)) + ext
	}

	return sanitized
}

// SanitizePath 逐段安全化条目路径，保留目录结构
func (fs *FilenameSanitizer) SanitizePath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, segment := range segments {
		segments[i] = fs.SanitizeFilename(segment)
	}
	return strings.Join(segments, "/")
}

// truncateUTF8 按字节截断且不拆分多字节字符
func truncateUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
