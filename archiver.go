package epack

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// defaultCacheSize 列表缓存的默认容量
const defaultCacheSize = 32

// Archiver 异步的列表与解压服务，所有回调都经由 dispatcher 投递
type Archiver struct {
	logger     *zap.Logger
	dispatch   func(func())
	options    Options
	cacheSize  int
	listCache  *lru.Cache[string, []string]
	newRequest func() string
}

// ArchiverOption Archiver 构造选项
type ArchiverOption func(*Archiver)

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) ArchiverOption {
	return func(a *Archiver) {
		a.logger = logger
	}
}

// WithDispatcher 设置回调投递方式，GUI中为 fyne.Do
func WithDispatcher(dispatch func(func())) ArchiverOption {
	return func(a *Archiver) {
		a.dispatch = dispatch
	}
}

// WithPasswords 设置尝试的密码列表
func WithPasswords(passwords []string) ArchiverOption {
	return func(a *Archiver) {
		a.options.Passwords = passwords
	}
}

// WithMaxFileSize 设置单文件大小限制
func WithMaxFileSize(size int64) ArchiverOption {
	return func(a *Archiver) {
		a.options.MaxFileSize = size
	}
}

// WithCacheSize 设置列表缓存容量
func WithCacheSize(size int) ArchiverOption {
	return func(a *Archiver) {
		a.cacheSize = size
	}
}

// NewArchiver 创建 Archiver
func NewArchiver(opts ...ArchiverOption) (*Archiver, error) {
	a := &Archiver{
		logger:     zap.NewNop(),
		dispatch:   func(fn func()) { fn() },
		cacheSize:  defaultCacheSize,
		newRequest: uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}

	cache, err := lru.New[string, []string](a.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("cannot create listing cache: %w", err)
	}
	a.listCache = cache

	return a, nil
}

// ListContent 异步列出压缩包内容，done 恰好调用一次
func (a *Archiver) ListContent(ctx context.Context, path string, done func(entries []string, err error)) {
	logger := a.requestLogger("list", path)

	go func() {
		startTime := time.Now()
		entries, err := a.list(ctx, path)
		if err != nil {
			logger.Warn("listing failed", zap.Error(err))
		} else {
			logger.Info("listing finished",
				zap.Int("entries", len(entries)),
				zap.Duration("elapsed", time.Since(startTime)))
		}

		a.dispatch(func() { done(entries, err) })
	}()
}

// Extract 异步解压，progress 可能调用零次或多次，随后 done 恰好调用一次
func (a *Archiver) Extract(ctx context.Context, path, dest string, progress func(fraction float64, name string), done func(err error)) {
	logger := a.requestLogger("extract", path).With(zap.String("dest", dest))

	go func() {
		err := a.extract(ctx, logger, path, dest, progress)
		a.dispatch(func() { done(err) })
	}()
}

// extract 同步解压，供 Extract 在后台调用
func (a *Archiver) extract(ctx context.Context, logger *zap.Logger, path, dest string, progress func(float64, string)) error {
	entries, err := a.list(ctx, path)
	if err != nil {
		logger.Warn("extraction aborted while counting entries", zap.Error(err))
		return err
	}

	options := a.options
	options.TotalEntries = len(entries)
	options.Progress = func(fraction float64, name string) {
		if progress != nil {
			a.dispatch(func() { progress(fraction, name) })
		}
	}
	if options.TotalEntries == 0 {
		// 空压缩包不需要统计进度
		options.Progress = nil
	}

	result, err := ExtractTo(ctx, path, dest, &options)
	if err != nil {
		if IsErrorType(err, ErrCancelled) {
			logger.Info("extraction cancelled")
		} else {
			logger.Error("extraction failed", zap.Error(err))
		}
		return err
	}

	for _, warning := range result.Warnings {
		logger.Warn("extraction warning", zap.String("detail", warning))
	}
	logger.Info("extraction finished",
		zap.Int("files", result.FilesCount),
		zap.Int64("bytes", result.TotalSize),
		zap.Bool("password_used", result.PasswordUsed),
		zap.Duration("elapsed", result.ProcessTime))

	return nil
}

// list 列出条目，结果按路径、大小与修改时间缓存
func (a *Archiver) list(ctx context.Context, path string) ([]string, error) {
	key, cacheable := listCacheKey(path)
	if cacheable {
		if entries, ok := a.listCache.Get(key); ok {
			return append([]string(nil), entries...), nil
		}
	}

	entries, err := List(ctx, path, &Options{Passwords: a.options.Passwords})
	if err != nil {
		return nil, err
	}

	if cacheable {
		a.listCache.Add(key, append([]string(nil), entries...))
	}
	return entries, nil
}

// requestLogger 为单个请求附加请求ID
func (a *Archiver) requestLogger(op, path string) *zap.Logger {
	return a.logger.With(
		zap.String("request_id", a.newRequest()),
		zap.String("op", op),
		zap.String("archive", path),
	)
}

// listCacheKey 计算缓存键，文件不可访问时不缓存
func listCacheKey(path string) (string, bool) {
	stat, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s|%d|%d", path, stat.Size(), stat.ModTime().UnixNano()), true
}
