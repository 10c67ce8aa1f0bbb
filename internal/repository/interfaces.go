// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/profiled/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
// すべての検索・更新はIdPのsubject_idをキーとする。このシステムがユーザー行を
// 削除することはない。
type UserRepository interface {
	// FindBySubjectID は指定subjectのユーザーを取得する。見つからない場合はnilを返す。
	FindBySubjectID(ctx context.Context, subjectID string) (*model.User, error)

	// Create は新規ユーザー行を作成する。
	Create(ctx context.Context, user *model.User) error

	// Update は既存ユーザー行をsubject_idキーで上書き更新する。
	Update(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッション行を作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。期限切れまたは未存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// SaveData はセッションのペイロード（claims、CSRFトークン）を上書き保存する。
	SaveData(ctx context.Context, id string, data model.SessionData) error

	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error
}
