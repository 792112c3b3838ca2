package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - Store 错误：NOT_FOUND, UNAVAILABLE
//   - Data 错误：数据源为空或不可达
//   - Model 错误：没有可用于训练的加权交互
//   - Serving 错误：未知用户
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "data", "model"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is 按 Module + Code 比较，使 errors.Is(err, ErrXXX) 对同类错误成立。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块（推荐结果缓存）
	ModuleData    = "data"    // 数据源模块（商品/用户/交互）
	ModuleModel   = "model"   // 隐因子模型
	ModuleServing = "serving" // 在线服务
)

var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrCacheUnavailable 表示缓存不可达（批处理中是致命错误，在线服务返回 503）
	ErrCacheUnavailable = NewDomainError(ModuleStore, ErrorCodeUnavailable, "store: cache unavailable")

	// ErrDataUnavailable 表示数据源为空或不可达，批处理整体中止
	ErrDataUnavailable = NewDomainError(ModuleData, ErrorCodeUnavailable, "data: dataset unavailable")

	// ErrModelUnavailable 表示没有可用的加权交互，无法训练模型
	ErrModelUnavailable = NewDomainError(ModuleModel, ErrorCodeUnavailable, "model: no model available")

	// ErrUserNotFound 表示在线请求的用户不存在（区别于“没有推荐结果”）
	ErrUserNotFound = NewDomainError(ModuleServing, ErrorCodeNotFound, "serving: user not found")
)

// IsNotFound 检查错误是否为 NOT_FOUND（任意模块）
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE（任意模块）
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	return errors.Is(err, ErrStoreNotFound)
}

// IsCacheUnavailable 检查错误是否为缓存不可达
func IsCacheUnavailable(err error) bool {
	return errors.Is(err, ErrCacheUnavailable)
}

// IsDataUnavailable 检查错误是否为数据源不可用
func IsDataUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}

// IsModelUnavailable 检查错误是否为模型不可用
func IsModelUnavailable(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}

// IsUserNotFound 检查错误是否为未知用户
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}
