// Package model はドメインモデルを定義する。
package model

import "time"

// MaxNameLength はfirst_name/last_nameに保存できる最大文字数（ルーン数）。
const MaxNameLength = 100

// 年齢の許容範囲。範囲外の入力はエラーにせず黙ってクランプする。
const (
	MinAge = 0
	MaxAge = 150
)

// User はIdPのsubjectごとに1行保持されるローカルプロフィールレコードを表す。
// ルックアップとアップサートは常にSubjectIDをキーとし、emailをキーにすることはない。
type User struct {
	ID        string
	SubjectID string
	Email     string // IdPから最後に取得したemail。未取得の場合は空文字列。
	FirstName string
	LastName  string
	Age       *int // 未設定の場合はnil。0と未設定は区別する。
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Claims はIdPから取得した本人情報（userinfo）を表す。
// コールバック時にセッションへコピーされ、以降Userテーブルとの再照合はしない。
type Claims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// SessionData はセッション行に永続化される型付きペイロード。
// 動的なキーバリューマップではなく、名前付きの省略可能フィールドとして扱う。
type SessionData struct {
	// User はログイン済みの場合のみ設定される。
	User *Claims `json:"user,omitempty"`
	// CSRFToken は最初のプロフィール表示時に遅延生成され、
	// セッションの生存期間中は安定している。
	CSRFToken string `json:"csrf_token,omitempty"`
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	Data      SessionData
	ExpiresAt time.Time
	CreatedAt time.Time
}
