package epack

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/nwaples/rardecode/v2"
)

// defaultRarExtractor RAR格式遍历器（rardecode为流式读取，只能顺序访问）
type defaultRarExtractor struct {
	encodingHandler EncodingHandler
}

// newRarExtractor 创建新的RAR解压器
func newRarExtractor() formatExtractor {
	return &defaultRarExtractor{
		encodingHandler: NewEncodingHandler(),
	}
}

// walk 遍历RAR条目
func (e *defaultRarExtractor) walk(ctx context.Context, archivePath, password string, fn func(*archiveEntry) error) error {
	// 每次尝试都重新打开文件
	file, err := os.Open(archivePath)
	if err != nil {
		return e.handleRarError(err, archivePath)
	}
	defer file.Close()

	var options []rardecode.Option
	if password != "" {
		options = append(options, rardecode.Password(password))
	}

	rarReader, err := rardecode.NewReader(file, options...)
	if err != nil {
		return e.handleRarError(err, archivePath)
	}

	for {
		if err := ctx.Err(); err != nil {
			return newCancelledError(archivePath, err)
		}

		header, err := rarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return e.handleRarError(err, archivePath)
		}

		fileName, _, err := e.encodingHandler.SmartDecodeFileName(header.Name)
		if err != nil {
			fileName = header.Name
		}

		entry := &archiveEntry{
			Name:    entryNameOf(fileName, header.IsDir),
			Kind:    entryFile,
			Size:    header.UnPackedSize,
			Mode:    header.Mode(),
			ModTime: header.ModificationTime,
		}

		if header.IsDir {
			entry.Kind = entryDir
		} else {
			name := header.Name
			entry.Open = func() (io.ReadCloser, error) {
				return &errMappingReader{
					ReadCloser: io.NopCloser(rarReader),
					mapErr:     func(err error) error { return e.handleRarError(err, name) },
				}, nil
			}
		}

		if err := fn(entry); err != nil {
			return err
		}
	}
}

// handleRarError 处理RAR相关错误
func (e *defaultRarExtractor) handleRarError(err error, path string) error {
	if err == nil {
		return nil
	}

	errorMsg := strings.ToLower(err.Error())

	switch {
	case os.IsNotExist(err):
		return NewExtractError(ErrInvalidPath, "file does not exist", path, err)

	case os.IsPermission(err):
		return NewExtractError(ErrPermissionDenied, "permission denied", path, err)

	case strings.Contains(errorMsg, "incorrect password") || strings.Contains(errorMsg, "bad password"):
		return NewExtractError(ErrInvalidPassword, "incorrect rar password", path, err)

	case strings.Contains(errorMsg, "password") || strings.Contains(errorMsg, "encrypted"):
		return NewExtractError(ErrPasswordRequired, "rar archive requires a password", path, err)

	case strings.Contains(errorMsg, "corrupt") || strings.Contains(errorMsg, "damaged") || strings.Contains(errorMsg, "checksum"):
		return NewExtractError(ErrCorruptedArchive, "rar archive is corrupted", path, err)

	case strings.Contains(errorMsg, "multi-volume") || strings.Contains(errorMsg, "volume"):
		return NewExtractError(ErrUnsupportedFormat, "multi-volume rar archives are not supported", path, err)
	}

	return NewExtractError(ErrCorruptedArchive, "cannot read rar archive", path, err)
}
