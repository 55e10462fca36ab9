package epack

// ProgressCallback 解压进度回调函数
// fraction: 完成比例(0.0-1.0), filename: 当前处理的条目名
type ProgressCallback func(fraction float64, filename string)

// ProgressReporter 进度报告器接口
type ProgressReporter interface {
	// OnEntry 每处理完一个条目调用一次
	OnEntry(filename string)
}

// entryProgressReporter 按条目数计算进度
type entryProgressReporter struct {
	total    int
	done     int
	callback ProgressCallback
}

// NewProgressReporter 创建进度报告器，total 为预计条目总数
func NewProgressReporter(total int, callback ProgressCallback) ProgressReporter {
	return &entryProgressReporter{
		total:    total,
		callback: callback,
	}
}

// OnEntry 报告条目进度
func (r *entryProgressReporter) OnEntry(filename string) {
	r.done++
	if r.callback == nil {
		return
	}

	fraction := 1.0
	if r.total > 0 && r.done < r.total {
		fraction = float64(r.done) / float64(r.total)
	}
	r.callback(fraction, filename)
}

// nopReporter 不报告进度
type nopReporter struct{}

func (nopReporter) OnEntry(string) {}
