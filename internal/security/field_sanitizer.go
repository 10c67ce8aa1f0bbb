package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/hitoshi/profiled/internal/model"
)

// FieldSanitizer はユーザー編集可能なプロフィール項目のサニタイズを行う。
// bluemondayの厳格ポリシーでHTMLタグをすべて除去し、前後の空白を取り除き、
// 最大長に切り詰める。サニタイズは保存済みの値が再送信された場合にも
// 常に適用される。
type FieldSanitizer struct {
	policy *bluemonday.Policy
}

// NewFieldSanitizer はFieldSanitizerを生成する。
func NewFieldSanitizer() *FieldSanitizer {
	return &FieldSanitizer{
		// StrictPolicyはすべてのHTML要素を除去しテキストのみを残す。
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeName は名前項目をサニタイズする。
// HTMLタグ除去 → 前後の空白トリム → MaxNameLengthルーンへの切り詰め、の順で適用する。
// バイトではなくルーン単位で切り詰めるため、マルチバイト文字が途中で分断されることはない。
func (s *FieldSanitizer) SanitizeName(raw string) string {
	// bluemondayはタグ除去後のテキストをエンティティエスケープして返すため、
	// プレーンテキストとして保存する前に戻す。
	stripped := html.UnescapeString(s.policy.Sanitize(raw))
	trimmed := strings.TrimSpace(stripped)

	runes := []rune(trimmed)
	if len(runes) > model.MaxNameLength {
		runes = runes[:model.MaxNameLength]
		// 切り詰めで末尾に空白が露出することがあるため再トリムする。
		return strings.TrimRight(string(runes), " \t\n\r")
	}
	return string(runes)
}

// ClampAge は年齢を[MinAge, MaxAge]にクランプする。
// 範囲外はエラーではなく黙って境界値に丸める。
func ClampAge(age int) int {
	if age < model.MinAge {
		return model.MinAge
	}
	if age > model.MaxAge {
		return model.MaxAge
	}
	return age
}
