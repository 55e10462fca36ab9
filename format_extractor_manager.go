package epack

import (
	"fmt"
)

// FormatExtractorManager 格式解压器管理器接口
type FormatExtractorManager interface {
	// GetSupportedFormats 获取支持的格式列表
	GetSupportedFormats() []ArchiveFormat

	// extractorFor 获取指定格式的遍历器
	extractorFor(format ArchiveFormat, archivePath string) (formatExtractor, error)
}

// defaultFormatExtractorManager 默认格式解压器管理器实现
type defaultFormatExtractorManager struct {
	formats    []ArchiveFormat
	extractors map[ArchiveFormat]formatExtractor
}

// NewFormatExtractorManager 创建新的格式解压器管理器
func NewFormatExtractorManager() FormatExtractorManager {
	m := &defaultFormatExtractorManager{
		extractors: make(map[ArchiveFormat]formatExtractor),
	}

	m.register(FormatZIP, newZipExtractor())
	m.register(FormatRAR, newRarExtractor())
	m.register(Format7Z, newSevenZExtractor())
	for _, format := range []ArchiveFormat{FormatTAR, FormatTARGZ, FormatTARBZ2, FormatTARXZ, FormatTARZST, FormatTARLZ4} {
		m.register(format, newTarExtractor(format))
	}

	return m
}

// register 注册格式遍历器
func (m *defaultFormatExtractorManager) register(format ArchiveFormat, extractor formatExtractor) {
	if _, ok := m.extractors[format]; !ok {
		m.formats = append(m.formats, format)
	}
	m.extractors[format] = extractor
}

// GetSupportedFormats 获取支持的格式列表
func (m *defaultFormatExtractorManager) GetSupportedFormats() []ArchiveFormat {
	formats := make([]ArchiveFormat, len(m.formats))
	copy(formats, m.formats)
	return formats
}

// extractorFor 获取指定格式的遍历器
func (m *defaultFormatExtractorManager) extractorFor(format ArchiveFormat, archivePath string) (formatExtractor, error) {
	extractor, ok := m.extractors[format]
	if !ok {
		return nil, NewExtractError(
			ErrUnsupportedFormat,
			fmt.Sprintf("unsupported archive format: %s", format),
			archivePath,
			nil,
		)
	}
	return extractor, nil
}
