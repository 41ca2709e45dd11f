package timeline

import "fmt"

// TimelineError 时间线领域错误
type TimelineError struct {
	message string
}

func (e *TimelineError) Error() string {
	return e.message
}

// NewTimelineError 创建时间线错误
func NewTimelineError(message string) *TimelineError {
	return &TimelineError{message: message}
}

// NewTimelineErrorf 创建格式化时间线错误
func NewTimelineErrorf(format string, args ...interface{}) *TimelineError {
	return &TimelineError{message: fmt.Sprintf(format, args...)}
}

// IsTimelineError 判断是否为时间线错误
func IsTimelineError(err error) bool {
	_, ok := err.(*TimelineError)
	return ok
}
