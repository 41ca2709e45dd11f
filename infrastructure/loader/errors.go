package loader

import "fmt"

// LoaderError 装载器错误
type LoaderError struct {
	message string
}

func (e *LoaderError) Error() string {
	return e.message
}

// NewLoaderError 创建装载器错误
func NewLoaderError(message string) *LoaderError {
	return &LoaderError{message: message}
}

// NewLoaderErrorf 创建格式化装载器错误
func NewLoaderErrorf(format string, args ...interface{}) *LoaderError {
	return &LoaderError{message: fmt.Sprintf(format, args...)}
}

// IsLoaderError 判断是否为装载器错误
func IsLoaderError(err error) bool {
	_, ok := err.(*LoaderError)
	return ok
}
