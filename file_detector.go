package epack

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo 文件信息结构
type FileInfo struct {
	Path            string        // 文件路径
	Name            string        // 文件名
	Size            int64         // 文件大小
	Format          ArchiveFormat // 检测到的格式
	DetectedByMagic bool          // 是否通过魔数检测
	Extension       string        // 文件扩展名
}

// FormatDetector 格式检测器接口
type FormatDetector interface {
	// DetectFormat 检测文件格式
	DetectFormat(filePath string) (ArchiveFormat, error)

	// DetectFileInfo 检测文件详细信息
	DetectFileInfo(filePath string) (*FileInfo, error)

	// DetectFromBytes 从字节数组检测格式
	DetectFromBytes(data []byte) ArchiveFormat
}

// defaultFormatDetector 默认格式检测器实现
type defaultFormatDetector struct {
	maxMagicBytes int // 读取用于魔数检测的最大字节数
}

// NewFormatDetector 创建新的格式检测器
func NewFormatDetector() FormatDetector {
	return &defaultFormatDetector{
		maxMagicBytes: 512, // TAR头需要完整的512字节
	}
}

// extensionFormats 扩展名到格式的映射，复合扩展名在前
var extensionFormats = []struct {
	suffix string
	format ArchiveFormat
}{
	{".tar.gz", FormatTARGZ},
	{".tar.bz2", FormatTARBZ2},
	{".tar.xz", FormatTARXZ},
	{".tar.zst", FormatTARZST},
	{".tar.lz4", FormatTARLZ4},
	{".tgz", FormatTARGZ},
	{".tbz", FormatTARBZ2},
	{".tbz2", FormatTARBZ2},
	{".txz", FormatTARXZ},
	{".tzst", FormatTARZST},
	{".zip", FormatZIP},
	{".rar", FormatRAR},
	{".7z", Format7Z},
	{".tar", FormatTAR},
	{".gz", FormatTARGZ},
	{".bz2", FormatTARBZ2},
	{".xz", FormatTARXZ},
	{".zst", FormatTARZST},
	{".lz4", FormatTARLZ4},
}

// SupportedExtensions 返回文件选择器使用的扩展名过滤列表（单段扩展名）
func SupportedExtensions() []string {
	seen := make(map[string]bool)
	var exts []string
	for _, item := range extensionFormats {
		ext := filepath.Ext(item.suffix)
		if !seen[ext] {
			seen[ext] = true
			exts = append(exts, ext)
		}
	}
	return exts
}

// DetectFormat 检测文件格式
func (d *defaultFormatDetector) DetectFormat(filePath string) (ArchiveFormat, error) {
	// 首先通过魔数检测（优先级更高）
	magicFormat, err := d.detectByMagicBytes(filePath)
	if err != nil {
		return FormatUnknown, err
	}
	if magicFormat != FormatUnknown {
		return magicFormat, nil
	}

	// 魔数无法识别时不信任扩展名，避免把普通文件当作压缩包
	return FormatUnknown, nil
}

// DetectFileInfo 检测文件详细信息
func (d *defaultFormatDetector) DetectFileInfo(filePath string) (*FileInfo, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot stat file: %w", err)
	}

	fileInfo := &FileInfo{
		Path:      filePath,
		Name:      filepath.Base(filePath),
		Size:      stat.Size(),
		Format:    FormatUnknown,
		Extension: filepath.Ext(filePath),
	}

	if detectedFormat, err := d.detectByMagicBytes(filePath); err == nil && detectedFormat != FormatUnknown {
		fileInfo.Format = detectedFormat
		fileInfo.DetectedByMagic = true
		return fileInfo, nil
	}

	fileInfo.Format = detectByExtension(filePath)
	return fileInfo, nil
}

// DetectFromBytes 从字节数组检测格式
func (d *defaultFormatDetector) DetectFromBytes(data []byte) ArchiveFormat {
	if len(data) < 4 {
		return FormatUnknown
	}

	switch {
	case d.isZipFormat(data):
		return FormatZIP
	case d.isRarFormat(data):
		return FormatRAR
	case d.is7zFormat(data):
		return Format7Z
	case d.isTarFormat(data):
		return FormatTAR
	case d.isGzipFormat(data):
		return FormatTARGZ
	case d.isBzip2Format(data):
		return FormatTARBZ2
	case d.isXzFormat(data):
		return FormatTARXZ
	case d.isZstdFormat(data):
		return FormatTARZST
	case d.isLz4Format(data):
		return FormatTARLZ4
	}

	return FormatUnknown
}

// detectByExtension 通过扩展名检测格式
func detectByExtension(filePath string) ArchiveFormat {
	filename := strings.ToLower(filepath.Base(filePath))
	for _, item := range extensionFormats {
		if strings.HasSuffix(filename, item.suffix) {
			return item.format
		}
	}
	return FormatUnknown
}

// detectByMagicBytes 通过魔数检测格式
func (d *defaultFormatDetector) detectByMagicBytes(filePath string) (ArchiveFormat, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return FormatUnknown, err
	}
	defer file.Close()

	buffer := make([]byte, d.maxMagicBytes)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return FormatUnknown, err
	}

	return d.DetectFromBytes(buffer[:n]), nil
}

// isZipFormat 检测是否为ZIP格式
func (d *defaultFormatDetector) isZipFormat(data []byte) bool {
	// ZIP文件的魔数: PK\x03\x04 或 PK\x05\x06（空包）或 PK\x07\x08
	return bytes.HasPrefix(data, []byte{0x50, 0x4B, 0x03, 0x04}) ||
		bytes.HasPrefix(data, []byte{0x50, 0x4B, 0x05, 0x06}) ||
		bytes.HasPrefix(data, []byte{0x50, 0x4B, 0x07, 0x08})
}

// isRarFormat 检测是否为RAR格式
func (d *defaultFormatDetector) isRarFormat(data []byte) bool {
	// RAR v4.x 魔数: Rar!\x1A\x07\x00
	if bytes.HasPrefix(data, []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00}) {
		return true
	}

	// RAR v5.x 魔数: Rar!\x1A\x07\x01\x00
	return bytes.HasPrefix(data, []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00})
}

// is7zFormat 检测是否为7Z格式
func (d *defaultFormatDetector) is7zFormat(data []byte) bool {
	// 7Z魔数: 7z\xBC\xAF\x27\x1C
	return bytes.HasPrefix(data, []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C})
}

// isTarFormat 检测是否为TAR格式
func (d *defaultFormatDetector) isTarFormat(data []byte) bool {
	if len(data) < 512 {
		return false
	}

	// ustar\x00 (POSIX) 或 ustar\x20 (GNU)，位于偏移257处
	if !bytes.Equal(data[257:262], []byte("ustar")) {
		return false
	}
	return d.validateTarChecksum(data)
}

// isGzipFormat 检测是否为GZIP格式
func (d *defaultFormatDetector) isGzipFormat(data []byte) bool {
	// GZIP魔数: \x1F\x8B\x08
	return len(data) >= 3 && data[0] == 0x1F && data[1] == 0x8B && data[2] == 0x08
}

// isBzip2Format 检测是否为BZIP2格式
func (d *defaultFormatDetector) isBzip2Format(data []byte) bool {
	// BZIP2魔数: BZh
	return bytes.HasPrefix(data, []byte{0x42, 0x5A, 0x68})
}

// isXzFormat 检测是否为XZ格式
func (d *defaultFormatDetector) isXzFormat(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00})
}

// isZstdFormat 检测是否为Zstandard格式
func (d *defaultFormatDetector) isZstdFormat(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0x28, 0xB5, 0x2F, 0xFD})
}

// isLz4Format 检测是否为LZ4帧格式
func (d *defaultFormatDetector) isLz4Format(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0x04, 0x22, 0x4D, 0x18})
}

// validateTarChecksum 验证TAR文件的校验和
func (d *defaultFormatDetector) validateTarChecksum(data []byte) bool {
	// 校验和字段（148-155）按空格计算
	var sum int64
	for i := 0; i < 512; i++ {
		if i >= 148 && i < 156 {
			sum += int64(' ')
		} else {
			sum += int64(data[i])
		}
	}

	checksumStr := strings.Trim(string(data[148:156]), "\x00 ")
	if checksumStr == "" {
		return false
	}

	storedChecksum, err := parseOctal(checksumStr)
	if err != nil {
		return false
	}

	return sum == storedChecksum
}

// parseOctal 解析八进制字符串
func parseOctal(s string) (int64, error) {
	var result int64
	for _, char := range s {
		if char < '0' || char > '7' {
			return 0, fmt.Errorf("invalid octal digit: %c", char)
		}
		result = result*8 + int64(char-'0')
	}
	return result, nil
}
