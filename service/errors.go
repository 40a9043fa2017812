package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrValidation 违反业务约束，可用 errors.Is 判断
	ErrValidation = errors.New("validation failed")
	// ErrConstraint 被引用的记录不允许删除
	ErrConstraint = errors.New("constraint violation")
)

// ValidationError 携带出错字段的校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConstraintError 引用约束错误
type ConstraintError struct {
	Entity  string
	ID      uint
	Message string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, e.Message)
}

func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraint
}

// first 查询单条记录，不存在时返回 found=false 而不是错误
func first[T any](tx *gorm.DB, id uint) (T, bool, error) {
	var v T
	err := tx.First(&v, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}

// mustExist 写操作引用的父记录必须存在，否则返回校验错误
func mustExist[T any](tx *gorm.DB, field string, id uint) (T, error) {
	v, ok, err := first[T](tx, id)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, invalid(field, "记录 %d 不存在", id)
	}
	return v, nil
}

// errNotFound 在事务内部表示目标不存在，由外层转换为 found=false
var errNotFound = errors.New("not found")

// foundResult 把事务结果转换为 (found, err)
func foundResult(err error) (bool, error) {
	if errors.Is(err, errNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
