package epack

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/m-mizutani/gt"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
	"github.com/yeka/zip"
)

type testEntry struct {
	name string
	body string
	link string // 非空时在TAR中写为符号链接
}

func (e testEntry) isDir() bool {
	return strings.HasSuffix(e.name, "/")
}

var sampleEntries = []testEntry{
	{name: "docs/"},
	{name: "docs/readme.txt", body: "hello epack"},
	{name: "docs/nested/"},
	{name: "docs/nested/data.bin", body: strings.Repeat("x", 4096)},
	{name: "top.txt", body: "top level"},
}

func sampleNames() []string {
	names := make([]string, 0, len(sampleEntries))
	for _, e := range sampleEntries {
		names = append(names, e.name)
	}
	return names
}

// writeZip 生成ZIP测试文件，password非空时加密文件条目
func writeZip(t *testing.T, path string, entries []testEntry, password string) {
	t.Helper()

	f, err := os.Create(path)
	gt.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for _, e := range entries {
		var dst io.Writer
		switch {
		case e.isDir():
			dst, err = w.Create(e.name)
		case password != "":
			dst, err = w.Encrypt(e.name, password, zip.AES256Encryption)
		default:
			dst, err = w.Create(e.name)
		}
		gt.NoError(t, err)

		if !e.isDir() {
			_, err = io.WriteString(dst, e.body)
			gt.NoError(t, err)
		}
	}
	gt.NoError(t, w.Close())
}

// writeTar 生成TAR系列测试文件
func writeTar(t *testing.T, path string, format ArchiveFormat, entries []testEntry) {
	t.Helper()

	f, err := os.Create(path)
	gt.NoError(t, err)
	defer f.Close()

	var stream io.WriteCloser
	switch format {
	case FormatTAR:
		stream = nopWriteCloser{f}
	case FormatTARGZ:
		stream = gzip.NewWriter(f)
	case FormatTARXZ:
		stream, err = xz.NewWriter(f)
		gt.NoError(t, err)
	case FormatTARZST:
		stream, err = zstd.NewWriter(f)
		gt.NoError(t, err)
	case FormatTARLZ4:
		stream = lz4.NewWriter(f)
	default:
		t.Fatalf("unsupported test format %s", format)
	}

	tw := tar.NewWriter(stream)
	modTime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, e := range entries {
		header := &tar.Header{
			Name:    e.name,
			Mode:    0644,
			ModTime: modTime,
			Format:  tar.FormatPAX,
		}
		switch {
		case e.link != "":
			header.Typeflag = tar.TypeSymlink
			header.Linkname = e.link
			header.Mode = 0777
		case e.isDir():
			header.Typeflag = tar.TypeDir
			header.Mode = 0755
		default:
			header.Typeflag = tar.TypeReg
			header.Size = int64(len(e.body))
		}
		gt.NoError(t, tw.WriteHeader(header))
		if header.Typeflag == tar.TypeReg {
			_, err := io.WriteString(tw, e.body)
			gt.NoError(t, err)
		}
	}
	gt.NoError(t, tw.Close())
	gt.NoError(t, stream.Close())
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	return string(data)
}

func tempArchive(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}
