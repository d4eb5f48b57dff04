package calc

import (
	"errors"
	"fmt"
)

// 预期内的求值失败全部以 error 值返回，Error() 文本就是面向用户的完整句子，
// 由工具层原样转发，绝不作为异常抛出。

// ErrTooFewTokens 记号不足两个
var ErrTooFewTokens = errors.New("Please provide at least two numbers to perform a calculation.")

// ErrLeadingOperator 表达式未以数字开头
var ErrLeadingOperator = errors.New("Expression must start with a number.")

// InvalidTokenError 片段既不是运算符，也没有可解析的数字前缀
type InvalidTokenError struct {
	Token string
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("Invalid token \"%s\" in expression.", e.Token)
}

// MissingOperandError 运算符之后缺少数字
type MissingOperandError struct {
	Operator string
}

func (e *MissingOperandError) Error() string {
	return fmt.Sprintf("Expected a number after operator \"%s\".", e.Operator)
}

// UnsupportedOperatorError 运算符槽位中出现不支持的记号
type UnsupportedOperatorError struct {
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("Unsupported operator \"%s\".", e.Operator)
}
