package epack

import (
	"archive/tar"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// defaultTarExtractor TAR系列格式遍历器，format决定外层压缩流
type defaultTarExtractor struct {
	format          ArchiveFormat
	encodingHandler EncodingHandler
}

// newTarExtractor 创建新的TAR解压器
func newTarExtractor(format ArchiveFormat) formatExtractor {
	return &defaultTarExtractor{
		format:          format,
		encodingHandler: NewEncodingHandler(),
	}
}

// walk 遍历TAR条目（TAR没有加密，忽略密码）
func (e *defaultTarExtractor) walk(ctx context.Context, archivePath, _ string, fn func(*archiveEntry) error) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return classifyIOError(err, "cannot open archive", archivePath)
	}
	defer file.Close()

	stream, err := e.createDecompressor(file)
	if err != nil {
		return NewExtractError(ErrCorruptedArchive,
			fmt.Sprintf("cannot read %s stream", e.format), archivePath, err)
	}
	defer stream.Close()

	reader := tar.NewReader(stream)
	for {
		if err := ctx.Err(); err != nil {
			return newCancelledError(archivePath, err)
		}

		header, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return NewExtractError(ErrCorruptedArchive, "cannot read tar entry", archivePath, err)
		}

		entry := e.entryFromHeader(header, reader)
		if entry == nil {
			continue
		}

		if err := fn(entry); err != nil {
			return err
		}
	}
}

// entryFromHeader 把TAR头转换为统一条目，PAX全局头等元数据条目返回nil
func (e *defaultTarExtractor) entryFromHeader(header *tar.Header, reader *tar.Reader) *archiveEntry {
	fileName, _, err := e.encodingHandler.SmartDecodeFileName(header.Name)
	if err != nil {
		fileName = header.Name
	}

	entry := &archiveEntry{
		Size:     header.Size,
		Mode:     os.FileMode(header.Mode).Perm(),
		ModTime:  header.ModTime,
		Linkname: header.Linkname,
	}

	switch header.Typeflag {
	case tar.TypeDir:
		entry.Kind = entryDir
	case tar.TypeReg:
		entry.Kind = entryFile
		name := header.Name
		entry.Open = func() (io.ReadCloser, error) {
			return &errMappingReader{
				ReadCloser: io.NopCloser(reader),
				mapErr: func(err error) error {
					return NewExtractError(ErrCorruptedArchive, "cannot read tar entry", name, err)
				},
			}, nil
		}
	case tar.TypeSymlink:
		entry.Kind = entrySymlink
	case tar.TypeLink:
		entry.Kind = entryHardlink
	case tar.TypeXGlobalHeader:
		return nil
	default:
		entry.Kind = entryOther
	}

	entry.Name = entryNameOf(fileName, entry.Kind == entryDir)
	return entry
}

// createDecompressor 根据格式创建外层解压流
func (e *defaultTarExtractor) createDecompressor(file *os.File) (io.ReadCloser, error) {
	switch e.format {
	case FormatTAR:
		return io.NopCloser(file), nil

	case FormatTARGZ:
		return gzip.NewReader(file)

	case FormatTARBZ2:
		return io.NopCloser(bzip2.NewReader(file)), nil

	case FormatTARXZ:
		xzReader, err := xz.NewReader(file)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xzReader), nil

	case FormatTARZST:
		decoder, err := zstd.NewReader(file)
		if err != nil {
			return nil, err
		}
		return decoder.IOReadCloser(), nil

	case FormatTARLZ4:
		return io.NopCloser(lz4.NewReader(file)), nil

	default:
		return nil, fmt.Errorf("unsupported tar format: %s", strings.ToUpper(e.format.String()))
	}
}
