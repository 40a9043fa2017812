// Package override 定义情景覆盖字段：每个字段要么继承基础值，要么被覆盖为一个具体值。
package override

import (
	"bytes"
	"encoding/json"
)

// Field 单个可覆盖字段。零值表示 Inherited。
type Field[T any] struct {
	value T
	set   bool
}

// Inherit 返回继承状态的字段
func Inherit[T any]() Field[T] {
	return Field[T]{}
}

// Set 返回被覆盖为 v 的字段
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// FromColumns 由数据库中的 overrides_x 标志和可空列组合出字段。
// 标志为 false 或值为 NULL 时视为继承。
func FromColumns[T any](flag bool, v *T) Field[T] {
	if !flag || v == nil {
		return Field[T]{}
	}
	return Set(*v)
}

// IsSet 是否被覆盖
func (f Field[T]) IsSet() bool {
	return f.set
}

// Get 返回覆盖值及是否被覆盖
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}

// Resolve 被覆盖时返回覆盖值，否则返回 base
func (f Field[T]) Resolve(base T) T {
	if f.set {
		return f.value
	}
	return base
}

// ResolvePtr 用于基础值本身可缺省的字段（如独立增长率、结束年龄）
func (f Field[T]) ResolvePtr(base *T) *T {
	if f.set {
		v := f.value
		return &v
	}
	return base
}

// Ptr 被覆盖时返回值的指针，否则返回 nil
func (f Field[T]) Ptr() *T {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

// Or 按优先级合并：f 被覆盖则取 f，否则取 next
func (f Field[T]) Or(next Field[T]) Field[T] {
	if f.set {
		return f
	}
	return next
}

// MarshalJSON 继承输出 null，覆盖输出值本身
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON null 视为继承，其他值视为覆盖
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Field[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Set(v)
	return nil
}
