// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInvalidCSRFToken = "INVALID_CSRF_TOKEN"
	ErrCodeLoginFailed      = "LOGIN_FAILED"
)

// NewUnauthorizedError は未ログインエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "ログインが必要です。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewInvalidCSRFTokenError はCSRFトークン検証失敗エラーを生成する。
// トークンの欠落と不一致を呼び出し側が区別できないよう、理由は含めない。
func NewInvalidCSRFTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCSRFToken,
		Message:  "フォームの有効期限が切れています。",
		Category: "auth",
		Action:   "ページを再読み込みしてから、もう一度送信してください。",
	}
}

// NewLoginFailedError はIdPとの認証処理失敗エラーを生成する。
// IdP側のエラー内容はログにのみ残し、ユーザーには一般的なメッセージを返す。
func NewLoginFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeLoginFailed,
		Message:  "ログイン処理に失敗しました。",
		Category: "auth",
		Action:   "しばらく待ってから再度ログインをお試しください。",
	}
}
