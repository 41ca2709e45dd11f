package journey

import "fmt"

// JourneyError 旅程领域错误
type JourneyError struct {
	message string
}

func (e *JourneyError) Error() string {
	return e.message
}

// NewJourneyError 创建旅程错误
func NewJourneyError(message string) *JourneyError {
	return &JourneyError{message: message}
}

// NewJourneyErrorf 创建格式化旅程错误
func NewJourneyErrorf(format string, args ...interface{}) *JourneyError {
	return &JourneyError{message: fmt.Sprintf(format, args...)}
}

// IsJourneyError 判断是否为旅程错误
func IsJourneyError(err error) bool {
	_, ok := err.(*JourneyError)
	return ok
}
