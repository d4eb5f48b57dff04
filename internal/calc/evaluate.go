package calc

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// 命名常量在分词前整段替换为十进制字面量，匹配时大小写不敏感
var constants = map[string]string{
	"pi": strconv.FormatFloat(math.Pi, 'g', -1, 64),
	"e":  strconv.FormatFloat(math.E, 'g', -1, 64),
}

type tokenKind int

const (
	numberToken tokenKind = iota
	operatorToken
)

// token 表达式记号；text 保留原始片段，错误消息需要引用它
type token struct {
	kind  tokenKind
	value float64
	text  string
}

// display 记号在错误消息中的呈现形式：数字记号显示解析后的值
func (t token) display() string {
	if t.kind == numberToken {
		return FormatNumber(t.value)
	}
	return t.text
}

// Evaluate 求值以空白分隔的算术表达式。
//
// 严格从左到右折叠，不处理运算符优先级："2 + 2 * 3" 的结果是 12。
// 除零不做校验，遵循 IEEE 754 语义。求值是纯函数，可重入。
func Evaluate(expression string) (float64, error) {
	tokens, err := tokenize(expression)
	if err != nil {
		return 0, err
	}

	if len(tokens) < 2 {
		return 0, ErrTooFewTokens
	}
	if tokens[0].kind != numberToken {
		return 0, ErrLeadingOperator
	}

	result := tokens[0].value
	for i := 1; i < len(tokens); i += 2 {
		op := tokens[i]
		if i+1 >= len(tokens) || tokens[i+1].kind != numberToken {
			return 0, &MissingOperandError{Operator: op.display()}
		}
		operand := tokens[i+1].value

		if op.kind != operatorToken {
			return 0, &UnsupportedOperatorError{Operator: op.display()}
		}

		switch op.text {
		case "+":
			result += operand
		case "-":
			result -= operand
		case "*":
			result *= operand
		case "/":
			result /= operand
		default:
			// 防御性分支：分词阶段只会产生上面四种运算符
			return 0, &UnsupportedOperatorError{Operator: op.text}
		}
	}

	return result, nil
}

// FormatResult 渲染成功结果，回显原始表达式
func FormatResult(expression string, value float64) string {
	return expression + " = " + FormatNumber(value)
}

// FormatNumber 以最短可往返的十进制形式渲染数值
func FormatNumber(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}

// tokenize 把表达式切分为记号序列，遇到无法归类的片段立即报错
func tokenize(expression string) ([]token, error) {
	segments := strings.Fields(expression)

	tokens := make([]token, 0, len(segments))
	for _, segment := range segments {
		if replacement, ok := constants[strings.ToLower(segment)]; ok {
			segment = replacement
		}

		switch segment {
		case "+", "-", "*", "/":
			tokens = append(tokens, token{kind: operatorToken, text: segment})
		default:
			value, ok := parseNumberPrefix(segment)
			if !ok {
				return nil, &InvalidTokenError{Token: segment}
			}
			tokens = append(tokens, token{kind: numberToken, value: value, text: segment})
		}
	}

	return tokens, nil
}

// parseNumberPrefix 解析片段的最长合法数字前缀："3abc" 解析为 3，
// "1e" 解析为 1，".5" 解析为 0.5；没有数字前缀则解析失败。
func parseNumberPrefix(segment string) (float64, bool) {
	end := numberPrefixLen(segment)
	if end == 0 {
		return 0, false
	}

	value, err := strconv.ParseFloat(segment[:end], 64)
	if err != nil {
		var numErr *strconv.NumError
		// 下溢出截断后仍是合法数字；上溢出产生非有限值，按无效记号处理
		if !errors.As(err, &numErr) || numErr.Err != strconv.ErrRange || math.IsInf(value, 0) {
			return 0, false
		}
	}
	return value, true
}

// numberPrefixLen 返回片段开头数字字面量的字节长度。
// 依次接受可选符号、整数部分、小数部分，指数只在后面跟着数字时才消费。
func numberPrefixLen(segment string) int {
	i, n := 0, len(segment)

	if i < n && (segment[i] == '+' || segment[i] == '-') {
		i++
	}

	hasDigits := false
	for i < n && isDigit(segment[i]) {
		i++
		hasDigits = true
	}
	if i < n && segment[i] == '.' {
		i++
		for i < n && isDigit(segment[i]) {
			i++
			hasDigits = true
		}
	}
	if !hasDigits {
		return 0
	}

	if i < n && (segment[i] == 'e' || segment[i] == 'E') {
		j := i + 1
		if j < n && (segment[j] == '+' || segment[j] == '-') {
			j++
		}
		k := j
		for k < n && isDigit(segment[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}

	return i
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
