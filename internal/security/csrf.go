// Package security はアプリケーションのセキュリティ機能を提供する。
//
// CSRFGuard はセッションストアに紐づくアンチフォージェリトークンを管理する。
// トークンはセッションごとに1つだけ存在し、最初の発行時に生成されて
// セッションの生存期間中は安定している。検証は状態変更リクエストの適用前に
// 必ず呼び出すこと。
package security

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/profiled/internal/model"
)

// SessionDataSaver はCSRFトークンの永続化に必要なセッションストアの部分集合。
type SessionDataSaver interface {
	SaveData(ctx context.Context, id string, data model.SessionData) error
}

// CSRFGuard はセッション単位のCSRFトークンの発行と検証を行う。
type CSRFGuard struct {
	sessions SessionDataSaver
}

// NewCSRFGuard はCSRFGuardを生成する。
func NewCSRFGuard(sessions SessionDataSaver) *CSRFGuard {
	return &CSRFGuard{sessions: sessions}
}

// Issue はセッションの既存トークンを返す。トークンが未発行の場合は
// 128ビットのランダムトークンを生成し、セッションストアに永続化してから返す。
// 同一セッションに対して冪等。
func (g *CSRFGuard) Issue(ctx context.Context, session *model.Session) (string, error) {
	if session == nil {
		return "", fmt.Errorf("session is required")
	}
	if session.Data.CSRFToken != "" {
		return session.Data.CSRFToken, nil
	}

	token := newCSRFToken()
	session.Data.CSRFToken = token

	if err := g.sessions.SaveData(ctx, session.ID, session.Data); err != nil {
		return "", fmt.Errorf("failed to persist csrf token: %w", err)
	}

	return token, nil
}

// Validate はセッションのトークンと送信されたトークンを比較する。
// 両方が存在し完全一致する場合のみnilを返し、それ以外はForbiddenエラーを返す。
// 比較はタイミング攻撃を避けるため定数時間で行う。
func (g *CSRFGuard) Validate(session *model.Session, submitted string) error {
	if session == nil {
		return model.NewInvalidCSRFTokenError()
	}
	stored := session.Data.CSRFToken
	if stored == "" || submitted == "" {
		return model.NewInvalidCSRFTokenError()
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) != 1 {
		return model.NewInvalidCSRFTokenError()
	}
	return nil
}

// newCSRFToken は128ビットのランダムトークンを32文字の16進文字列で生成する。
func newCSRFToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
