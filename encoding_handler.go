package epack

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// EncodingHandler 编码处理器接口
type EncodingHandler interface {
	// DecodeFileName 按指定编码解码文件名
	DecodeFileName(fileName, encoding string) (string, error)

	// DetectEncoding 检测文件名编码
	DetectEncoding(fileName string) string

	// SmartDecodeFileName 智能解码文件名，返回UTF-8名称和识别出的编码
	SmartDecodeFileName(fileName string) (string, string, error)
}

// defaultEncodingHandler 默认编码处理器实现
type defaultEncodingHandler struct {
	// priorityEncodings 无法判断时依次尝试的旧编码（中文ZIP/RAR常见GBK）
	priorityEncodings []string
}

// NewEncodingHandler 创建新的编码处理器
func NewEncodingHandler() EncodingHandler {
	return &defaultEncodingHandler{
		priorityEncodings: []string{"GBK", "BIG5", "SHIFT_JIS", "EUC-KR"},
	}
}

// DecodeFileName 解码文件名
func (h *defaultEncodingHandler) DecodeFileName(fileName, encoding string) (string, error) {
	if encoding == "" || strings.EqualFold(encoding, "UTF-8") {
		return fileName, nil
	}

	decoder := h.getDecoder(encoding)
	if decoder == nil {
		return fileName, fmt.Errorf("unsupported encoding: %s", encoding)
	}

	decodedBytes, _, err := transform.Bytes(decoder, []byte(fileName))
	if err != nil {
		return fileName, err
	}

	return string(decodedBytes), nil
}

// DetectEncoding 检测文件名编码
func (h *defaultEncodingHandler) DetectEncoding(fileName string) string {
	if utf8.ValidString(fileName) {
		return "UTF-8"
	}

	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest([]byte(fileName))
	if err == nil && result.Confidence > 70 {
		if encoding := h.mapCharsetToEncoding(result.Charset); encoding != "" {
			return encoding
		}
	}

	return ""
}

// SmartDecodeFileName 智能解码文件名（自动检测）
func (h *defaultEncodingHandler) SmartDecodeFileName(fileName string) (string, string, error) {
	if utf8.ValidString(fileName) {
		return fileName, "UTF-8", nil
	}

	// 压缩包里的非UTF-8名称大多来自中文Windows，先按常见编码尝试
	for _, encoding := range h.priorityEncodings {
		decoded, err := h.DecodeFileName(fileName, encoding)
		if err == nil && h.isReasonableFileName(decoded) {
			return decoded, encoding, nil
		}
	}

	// chardet 对短文件名把握不大，置信度足够高时才采用
	if detected := h.DetectEncoding(fileName); detected != "" && detected != "UTF-8" {
		decoded, err := h.DecodeFileName(fileName, detected)
		if err == nil && h.isReasonableFileName(decoded) {
			return decoded, detected, nil
		}
	}

	// 最后的备用方案：替换无效字节
	return strings.ToValidUTF8(fileName, "_"), "CLEANED", nil
}

// mapCharsetToEncoding 将chardet的字符集映射到支持的编码
func (h *defaultEncodingHandler) mapCharsetToEncoding(charset string) string {
	switch strings.ToUpper(charset) {
	case "GB2312", "GBK", "GB18030", "GB-18030":
		return "GBK"
	case "BIG5":
		return "BIG5"
	case "SHIFT_JIS", "SJIS":
		return "SHIFT_JIS"
	case "EUC-KR":
		return "EUC-KR"
	case "ISO-8859-1":
		return "ISO-8859-1"
	case "WINDOWS-1252":
		return "WINDOWS-1252"
	case "IBM866":
		return "CP866"
	default:
		return ""
	}
}

// getDecoder 根据编码名称获取解码器
func (h *defaultEncodingHandler) getDecoder(encoding string) transform.Transformer {
	switch strings.ToUpper(encoding) {
	case "GBK", "GB2312":
		return simplifiedchinese.GBK.NewDecoder()
	case "BIG5":
		return traditionalchinese.Big5.NewDecoder()
	case "SHIFT_JIS", "SJIS":
		return japanese.ShiftJIS.NewDecoder()
	case "EUC-KR":
		return korean.EUCKR.NewDecoder()
	case "ISO-8859-1", "LATIN1":
		return charmap.ISO8859_1.NewDecoder()
	case "CP866":
		return charmap.CodePage866.NewDecoder()
	case "CP1252", "WINDOWS-1252":
		return charmap.Windows1252.NewDecoder()
	default:
		return nil
	}
}

// isReasonableFileName 检查解码后的文件名是否合理
func (h *defaultEncodingHandler) isReasonableFileName(fileName string) bool {
	if !utf8.ValidString(fileName) {
		return false
	}

	for _, r := range fileName {
		if r == utf8.RuneError || (r < 32 && r != '\t') {
			return false
		}
	}

	return true
}
