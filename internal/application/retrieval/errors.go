package retrieval

import "errors"

var (
	// ErrVectorDisabled 表示向量检索/索引能力未配置（Milvus 或 Embedder 不可用）。
	ErrVectorDisabled = errors.New("vector retrieval is disabled")

	// ErrRetrievalUnavailable 表示所有查询变体的召回均失败，仅在全军覆没时返回。
	ErrRetrievalUnavailable = errors.New("retrieval unavailable: all query variants failed")
)

// TransientError 标记可重试的外部调用失败（网络、限流），供重试策略识别
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient provider error: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient 判断错误是否为可重试的瞬时失败
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
