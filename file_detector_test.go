package epack

import (
	"os"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestDetectFromBytes(t *testing.T) {
	detector := NewFormatDetector()

	testCases := []struct {
		name   string
		data   []byte
		expect ArchiveFormat
	}{
		{name: "zip", data: []byte{0x50, 0x4B, 0x03, 0x04, 0x14, 0x00}, expect: FormatZIP},
		{name: "empty zip", data: []byte{0x50, 0x4B, 0x05, 0x06, 0x00, 0x00}, expect: FormatZIP},
		{name: "rar4", data: []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00, 0xCF}, expect: FormatRAR},
		{name: "rar5", data: []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00}, expect: FormatRAR},
		{name: "7z", data: []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C, 0x00, 0x04}, expect: Format7Z},
		{name: "gzip", data: []byte{0x1F, 0x8B, 0x08, 0x00}, expect: FormatTARGZ},
		{name: "bzip2", data: []byte("BZh91AY&SY"), expect: FormatTARBZ2},
		{name: "xz", data: []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00, 0x00}, expect: FormatTARXZ},
		{name: "zstd", data: []byte{0x28, 0xB5, 0x2F, 0xFD, 0x00}, expect: FormatTARZST},
		{name: "lz4", data: []byte{0x04, 0x22, 0x4D, 0x18, 0x64}, expect: FormatTARLZ4},
		{name: "text", data: []byte("hello world"), expect: FormatUnknown},
		{name: "too short", data: []byte{0x50, 0x4B}, expect: FormatUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, detector.DetectFromBytes(tc.data), tc.expect)
		})
	}
}

func TestDetectPlainTar(t *testing.T) {
	archive := tempArchive(t, "plain.bin")
	writeTar(t, archive, FormatTAR, sampleEntries)

	format, err := NewFormatDetector().DetectFormat(archive)
	gt.NoError(t, err)
	gt.Equal(t, format, FormatTAR)
}

func TestDetectFileInfoFallsBackToExtension(t *testing.T) {
	path := tempArchive(t, "odd.tar.bz2")
	gt.NoError(t, os.WriteFile(path, []byte("not really bzip2"), 0644))

	info, err := NewFormatDetector().DetectFileInfo(path)
	gt.NoError(t, err)
	gt.Equal(t, info.Format, FormatTARBZ2)
	gt.Equal(t, info.DetectedByMagic, false)
	gt.Equal(t, info.Name, "odd.tar.bz2")
}

func TestDetectByExtension(t *testing.T) {
	testCases := map[string]ArchiveFormat{
		"/a/b/c.zip":      FormatZIP,
		"photos.TAR.GZ":   FormatTARGZ,
		"backup.tgz":      FormatTARGZ,
		"release.tar.zst": FormatTARZST,
		"logs.txz":        FormatTARXZ,
		"movie.7z":        Format7Z,
		"notes.txt":       FormatUnknown,
	}

	for path, expect := range testCases {
		gt.Equal(t, detectByExtension(path), expect)
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	seen := map[string]int{}
	for _, ext := range exts {
		seen[ext]++
	}

	for _, ext := range []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz", ".zst", ".lz4", ".tgz"} {
		gt.Equal(t, seen[ext], 1)
	}
}
