// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は大会情報などの自由入力テキストからHTMLを除去する。
// bluemondayのStrictPolicyを使用し、タグと属性をすべて取り除く。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由入力テキストのサニタイズ機能のインターフェース。
type TextSanitizer interface {
	// Sanitize はHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はStrictPolicyを保持するTextSanitizerを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// maxSanitizeRounds は多重エスケープされた入力に対する除去の繰り返し上限。
const maxSanitizeRounds = 4

// Sanitize はタグを除去する。
// 実体参照で書かれたタグも除去するため、先にアンエスケープしてからポリシーを適用し、
// 出力が変化しなくなるまで繰り返す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	current := unescapeAll(raw)
	for i := 0; i < maxSanitizeRounds; i++ {
		next := html.UnescapeString(s.policy.Sanitize(current))
		if next == current {
			return strings.TrimSpace(next)
		}
		current = next
	}
	// 収束しない入力はエスケープしたまま保存する
	return strings.TrimSpace(s.policy.Sanitize(current))
}

// unescapeAll は多重にエスケープされた実体参照を上限回数まで展開する。
func unescapeAll(s string) string {
	for i := 0; i < maxSanitizeRounds; i++ {
		next := html.UnescapeString(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}
