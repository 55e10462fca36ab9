package epack

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/bodgit/sevenzip"
)

// defaultSevenZExtractor 7Z格式遍历器
type defaultSevenZExtractor struct {
	encodingHandler EncodingHandler
}

// newSevenZExtractor 创建新的7Z解压器
func newSevenZExtractor() formatExtractor {
	return &defaultSevenZExtractor{
		encodingHandler: NewEncodingHandler(),
	}
}

// walk 遍历7Z条目
func (e *defaultSevenZExtractor) walk(ctx context.Context, archivePath, password string, fn func(*archiveEntry) error) error {
	reader, err := openSevenZipWithPassword(archivePath, password)
	if err != nil {
		return e.handle7zError(err, archivePath, password)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return newCancelledError(archivePath, err)
		}

		fileName, _, err := e.encodingHandler.SmartDecodeFileName(file.Name)
		if err != nil {
			fileName = file.Name
		}

		info := file.FileInfo()
		entry := &archiveEntry{
			Name:    entryNameOf(fileName, info.IsDir()),
			Kind:    entryFile,
			Size:    info.Size(),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
		}

		if info.IsDir() {
			entry.Kind = entryDir
		} else {
			f := file
			entry.Open = func() (io.ReadCloser, error) {
				mapErr := func(err error) error { return e.handle7zError(err, f.Name, password) }
				src, err := f.Open()
				if err != nil {
					return nil, mapErr(err)
				}
				return &errMappingReader{ReadCloser: src, mapErr: mapErr}, nil
			}
		}

		if err := fn(entry); err != nil {
			return err
		}
	}

	return nil
}

// handle7zError 处理7Z相关错误
func (e *defaultSevenZExtractor) handle7zError(err error, path, password string) error {
	if err == nil {
		return nil
	}

	// 加密内容读取失败：没有密码时需要密码，否则视为密码错误
	var readErr *sevenzip.ReadError
	if errors.As(err, &readErr) && readErr.Encrypted {
		if password == "" {
			return NewExtractError(ErrPasswordRequired, "7z archive requires a password", path, err)
		}
		return NewExtractError(ErrInvalidPassword, "cannot decrypt 7z archive", path, err)
	}

	errorMsg := strings.ToLower(err.Error())

	switch {
	case os.IsNotExist(err):
		return NewExtractError(ErrInvalidPath, "file does not exist", path, err)

	case os.IsPermission(err):
		return NewExtractError(ErrPermissionDenied, "permission denied", path, err)

	case strings.Contains(errorMsg, "password") || strings.Contains(errorMsg, "encrypted"):
		return NewExtractError(ErrPasswordRequired, "7z archive requires a password", path, err)

	case strings.Contains(errorMsg, "unsupported"):
		return NewExtractError(ErrUnsupportedFormat, "unsupported 7z compression method", path, err)
	}

	return NewExtractError(ErrCorruptedArchive, "cannot read 7z archive", path, err)
}

// openSevenZipWithPassword 使用密码打开7z文件
func openSevenZipWithPassword(archivePath, password string) (*sevenzip.ReadCloser, error) {
	if password != "" {
		return sevenzip.OpenReaderWithPassword(archivePath, password)
	}
	// 无密码时使用普通OpenReader方法
	return sevenzip.OpenReader(archivePath)
}
