package epack

import (
	"context"
	"io"
	"os"
	"strings"

	encryptedzip "github.com/yeka/zip"
)

// defaultZipExtractor ZIP格式遍历器，支持ZipCrypto与AES加密条目
type defaultZipExtractor struct {
	encodingHandler EncodingHandler
}

// newZipExtractor 创建新的ZIP解压器
func newZipExtractor() formatExtractor {
	return &defaultZipExtractor{
		encodingHandler: NewEncodingHandler(),
	}
}

// walk 遍历ZIP条目
func (e *defaultZipExtractor) walk(ctx context.Context, archivePath, password string, fn func(*archiveEntry) error) error {
	reader, err := encryptedzip.OpenReader(archivePath)
	if err != nil {
		return e.handleZipError(err, archivePath)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return newCancelledError(archivePath, err)
		}

		// 智能解码文件名，失败时使用原始文件名
		fileName, _, err := e.encodingHandler.SmartDecodeFileName(file.Name)
		if err != nil {
			fileName = file.Name
		}

		info := file.FileInfo()
		entry := &archiveEntry{
			Name:    entryNameOf(fileName, info.IsDir()),
			Kind:    entryFile,
			Size:    int64(file.UncompressedSize64),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
		}

		if info.IsDir() || strings.HasSuffix(entry.Name, "/") {
			entry.Kind = entryDir
		} else {
			entry.Open = e.opener(file, password)
		}

		if err := fn(entry); err != nil {
			return err
		}
	}

	return nil
}

// opener 返回条目的打开函数，加密条目读取失败按密码错误处理
func (e *defaultZipExtractor) opener(file *encryptedzip.File, password string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		encrypted := file.IsEncrypted()
		if encrypted {
			if password == "" {
				return nil, NewExtractError(ErrPasswordRequired, "zip entry is encrypted", file.Name, nil)
			}
			file.SetPassword(password)
		}

		mapErr := func(err error) error {
			if encrypted {
				return NewExtractError(ErrInvalidPassword, "cannot decrypt zip entry", file.Name, err)
			}
			return e.handleZipError(err, file.Name)
		}

		src, err := file.Open()
		if err != nil {
			return nil, mapErr(err)
		}
		return &errMappingReader{ReadCloser: src, mapErr: mapErr}, nil
	}
}

// handleZipError 处理ZIP相关错误
func (e *defaultZipExtractor) handleZipError(err error, path string) error {
	if err == nil {
		return nil
	}

	errorMsg := err.Error()

	switch {
	case os.IsNotExist(err):
		return NewExtractError(ErrInvalidPath, "file does not exist", path, err)

	case os.IsPermission(err):
		return NewExtractError(ErrPermissionDenied, "permission denied", path, err)

	case strings.Contains(errorMsg, "not a valid zip file"):
		return NewExtractError(ErrCorruptedArchive, "not a valid zip file", path, err)

	case strings.Contains(errorMsg, "password") || strings.Contains(errorMsg, "encrypted"):
		return NewExtractError(ErrPasswordRequired, "zip archive requires a password", path, err)

	case strings.Contains(errorMsg, "checksum"):
		return NewExtractError(ErrCorruptedArchive, "zip checksum error", path, err)

	case strings.Contains(errorMsg, "algorithm"):
		return NewExtractError(ErrUnsupportedFormat, "unsupported zip compression method", path, err)
	}

	return NewExtractError(ErrCorruptedArchive, "cannot read zip archive", path, err)
}
