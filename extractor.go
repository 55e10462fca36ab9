package epack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// entryKind 条目类型
type entryKind int

const (
	entryFile entryKind = iota
	entryDir
	entrySymlink
	entryHardlink
	entryOther
)

// archiveEntry 各格式遍历时产出的统一条目
type archiveEntry struct {
	Name     string // UTF-8名称，目录以 "/" 结尾
	Kind     entryKind
	Size     int64
	Mode     os.FileMode
	ModTime  time.Time
	Linkname string // 链接目标（仅TAR）

	// Open 打开条目内容，目录和链接为nil
	Open func() (io.ReadCloser, error)
}

// formatExtractor 单一压缩格式的遍历器
type formatExtractor interface {
	// walk 按归档顺序遍历条目，fn返回错误时立即停止并原样返回
	walk(ctx context.Context, archivePath, password string, fn func(*archiveEntry) error) error
}

// extractResult 一次解压的汇总
type extractResult struct {
	Files     int
	TotalSize int64
	Warnings  []string
}

// entryNameOf 规范化条目名称：统一分隔符，目录以 "/" 结尾
func entryNameOf(name string, isDir bool) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if isDir && !strings.HasSuffix(name, "/") {
		name += "/"
	}
	return name
}

// listEntries 遍历并收集条目名称
func listEntries(ctx context.Context, extractor formatExtractor, archivePath, password string) ([]string, error) {
	entries := []string{}
	err := extractor.walk(ctx, archivePath, password, func(entry *archiveEntry) error {
		if err := ctx.Err(); err != nil {
			return newCancelledError(archivePath, err)
		}
		entries = append(entries, entry.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// entryWriter 把条目写入目标目录（各格式共用）
type entryWriter struct {
	dest      string
	config    extractConfig
	validator SecurityValidator
	sanitizer *FilenameSanitizer
	utils     ArchiveUtils
	reporter  ProgressReporter
	result    *extractResult
}

// newEntryWriter 创建条目写入器
func newEntryWriter(dest string, config extractConfig, reporter ProgressReporter) *entryWriter {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &entryWriter{
		dest:      dest,
		config:    config,
		validator: NewSecurityValidator(),
		sanitizer: NewFilenameSanitizer(),
		utils:     NewArchiveUtils(),
		reporter:  reporter,
		result:    &extractResult{Warnings: make([]string, 0)},
	}
}

// extractEntries 遍历并写出全部条目
func extractEntries(ctx context.Context, extractor formatExtractor, archivePath, password, dest string, config extractConfig, reporter ProgressReporter) (*extractResult, error) {
	writer := newEntryWriter(dest, config, reporter)
	err := extractor.walk(ctx, archivePath, password, func(entry *archiveEntry) error {
		return writer.write(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return writer.result, nil
}

// write 写出单个条目
func (w *entryWriter) write(ctx context.Context, entry *archiveEntry) error {
	if err := ctx.Err(); err != nil {
		return newCancelledError(entry.Name, err)
	}

	if err := w.writeEntry(ctx, entry); err != nil {
		return err
	}

	w.reporter.OnEntry(entry.Name)
	return nil
}

// writeEntry 根据条目类型分派
func (w *entryWriter) writeEntry(ctx context.Context, entry *archiveEntry) error {
	if err := w.validator.ValidatePath(entry.Name, w.dest); err != nil {
		return err
	}

	if w.config.SkipHidden && w.utils.IsHiddenFile(entry.Name) {
		w.warn("skipped hidden entry %s", entry.Name)
		return nil
	}

	relPath := w.sanitizer.SanitizePath(w.validator.SanitizePath(entry.Name))
	if relPath != strings.TrimSuffix(entry.Name, "/") {
		w.warn("entry %s written as %s", entry.Name, relPath)
	}

	targetPath, err := PathSafeJoin(w.dest, relPath)
	if err != nil {
		return err
	}

	// 已写出的符号链接不能成为后续条目的路径组件
	if err := w.checkNoSymlinkParents(targetPath); err != nil {
		return withPath(err, entry.Name)
	}

	switch entry.Kind {
	case entryDir:
		if _, err := w.checkNotSymlink(targetPath); err != nil {
			return withPath(err, entry.Name)
		}
		if err := w.utils.EnsureDirectoryExists(targetPath); err != nil {
			return classifyIOError(err, "cannot create directory", targetPath)
		}
		return nil

	case entryFile:
		return w.writeFile(ctx, entry, targetPath)

	case entrySymlink:
		return w.writeSymlink(entry, targetPath)

	case entryHardlink:
		return w.writeHardlink(entry, targetPath)

	default:
		w.warn("skipped unsupported entry type: %s", entry.Name)
		return nil
	}
}

// writeFile 写出普通文件
func (w *entryWriter) writeFile(ctx context.Context, entry *archiveEntry, targetPath string) error {
	if err := w.validator.ValidateFileSize(entry.Size, w.config.MaxFileSize); err != nil {
		return withPath(err, entry.Name)
	}

	if err := w.validator.ValidateTotalSize(w.result.TotalSize, entry.Size, w.config.MaxTotalSize); err != nil {
		return withPath(err, entry.Name)
	}

	finalPath, err := HandleFileConflict(targetPath, w.config)
	if err != nil {
		return err
	}
	if finalPath != targetPath {
		w.warn("renamed %s to %s", filepath.Base(targetPath), filepath.Base(finalPath))
	}

	parentDir := filepath.Dir(finalPath)
	if err := w.utils.EnsureDirectoryExists(parentDir); err != nil {
		return classifyIOError(err, "cannot create parent directory", parentDir)
	}

	if entry.Open == nil {
		return NewExtractError(ErrInternalError, "entry has no content reader", entry.Name, nil)
	}

	src, err := entry.Open()
	if err != nil {
		return classifyIOError(err, "cannot open entry", entry.Name)
	}
	defer src.Close()

	mode := entry.Mode.Perm()
	if mode == 0 {
		mode = 0644
	}

	// 覆盖时替换链接本身，不写入链接指向的文件
	if info, err := os.Lstat(finalPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(finalPath); err != nil {
			return classifyIOError(err, "cannot replace existing symlink", finalPath)
		}
	}

	dst, err := os.OpenFile(finalPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return classifyIOError(err, "cannot create file", finalPath)
	}

	// 复制失败时删除已创建的文件
	var copySuccess bool
	defer func() {
		dst.Close()
		if !copySuccess {
			os.Remove(finalPath)
		}
	}()

	copied, err := w.copyContent(ctx, dst, src, entry)
	if err != nil {
		return err
	}
	copySuccess = true

	if !entry.ModTime.IsZero() {
		// 时间设置失败不是致命错误
		_ = os.Chtimes(finalPath, entry.ModTime, entry.ModTime)
	}

	w.result.Files++
	w.result.TotalSize += copied
	return nil
}

// copyContent 复制条目内容，遵守取消与单文件大小限制
func (w *entryWriter) copyContent(ctx context.Context, dst io.Writer, src io.Reader, entry *archiveEntry) (int64, error) {
	reader := io.Reader(&ctxReader{ctx: ctx, r: src})

	limit := w.config.MaxFileSize
	if limit > 0 {
		// 头部记录的大小可能不可信，多读一个字节用于判断超限
		reader = io.LimitReader(reader, limit+1)
	}

	copied, err := io.Copy(dst, reader)
	if err != nil {
		return copied, classifyIOError(err, "cannot write entry", entry.Name)
	}

	if limit > 0 && copied > limit {
		return copied, NewExtractError(ErrFileTooLarge,
			fmt.Sprintf("file size exceeds limit (%d bytes)", limit),
			entry.Name, nil)
	}

	return copied, nil
}

// writeSymlink 创建符号链接，链接目标必须留在目标目录内
func (w *entryWriter) writeSymlink(entry *archiveEntry, targetPath string) error {
	linkTarget := entry.Linkname
	if filepath.IsAbs(linkTarget) {
		w.warn("skipped symlink with absolute target: %s -> %s", entry.Name, linkTarget)
		return nil
	}

	resolved := filepath.Join(filepath.Dir(targetPath), filepath.FromSlash(linkTarget))
	if _, err := PathSafeJoin(w.dest, relativeTo(w.dest, resolved)); err != nil {
		w.warn("skipped symlink escaping destination: %s -> %s", entry.Name, linkTarget)
		return nil
	}

	if err := w.utils.EnsureDirectoryExists(filepath.Dir(targetPath)); err != nil {
		return classifyIOError(err, "cannot create parent directory", filepath.Dir(targetPath))
	}

	if _, err := os.Lstat(targetPath); err == nil {
		if err := os.Remove(targetPath); err != nil {
			return classifyIOError(err, "cannot replace existing file", targetPath)
		}
	}

	if err := os.Symlink(linkTarget, targetPath); err != nil {
		return classifyIOError(err, "cannot create symlink", targetPath)
	}
	return nil
}

// writeHardlink 创建硬链接，链接目标按条目路径规则校验
func (w *entryWriter) writeHardlink(entry *archiveEntry, targetPath string) error {
	linkTarget, err := PathSafeJoin(w.dest, w.validator.SanitizePath(entry.Linkname))
	if err != nil {
		return err
	}
	if err := w.checkNoSymlinkParents(linkTarget); err != nil {
		return withPath(err, entry.Name)
	}

	if err := w.utils.EnsureDirectoryExists(filepath.Dir(targetPath)); err != nil {
		return classifyIOError(err, "cannot create parent directory", filepath.Dir(targetPath))
	}

	if _, err := os.Lstat(targetPath); err == nil {
		if err := os.Remove(targetPath); err != nil {
			return classifyIOError(err, "cannot replace existing file", targetPath)
		}
	}

	if err := os.Link(linkTarget, targetPath); err != nil {
		return classifyIOError(err, "cannot create hard link", targetPath)
	}
	return nil
}

// checkNoSymlinkParents 目标目录与 path 之间已存在的各级目录都不能是符号链接
func (w *entryWriter) checkNoSymlinkParents(path string) error {
	rel, err := filepath.Rel(w.dest, filepath.Dir(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return NewExtractError(ErrPathTraversal, "entry path escapes destination", path, nil)
	}
	if rel == "." {
		return nil
	}

	current := w.dest
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		exists, err := w.checkNotSymlink(current)
		if err != nil {
			return err
		}
		if !exists {
			// 其余组件尚未创建
			return nil
		}
	}
	return nil
}

// checkNotSymlink 返回 path 是否存在，存在且为符号链接时返回 PATH_TRAVERSAL
func (w *entryWriter) checkNotSymlink(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, classifyIOError(err, "cannot inspect path", path)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return true, NewExtractError(ErrPathTraversal, "entry path passes through a symbolic link", path, nil)
	}
	return true, nil
}

// warn 记录警告
func (w *entryWriter) warn(format string, args ...any) {
	w.result.Warnings = append(w.result.Warnings, fmt.Sprintf(format, args...))
}

// relativeTo 计算相对路径，失败时返回原路径
func relativeTo(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}

// withPath 为缺少路径信息的解压错误补充条目名
func withPath(err error, path string) error {
	if extractErr, ok := err.(*ExtractError); ok && extractErr.Path == "" {
		extractErr.Path = path
	}
	return err
}

// ctxReader 在每次读取前检查取消
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// errMappingReader 读取出错时转换错误（用于识别密码错误）
type errMappingReader struct {
	io.ReadCloser
	mapErr func(error) error
}

func (r *errMappingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if err != nil && err != io.EOF {
		err = r.mapErr(err)
	}
	return n, err
}
