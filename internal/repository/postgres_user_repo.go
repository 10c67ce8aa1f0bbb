package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/profiled/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindBySubjectID は指定subjectのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindBySubjectID(ctx context.Context, subjectID string) (*model.User, error) {
	user := &model.User{}
	var email sql.NullString
	var age sql.NullInt64

	err := r.db.QueryRowContext(ctx,
		`SELECT id, subject_id, email, first_name, last_name, age, created_at, updated_at
		 FROM users WHERE subject_id = $1`,
		subjectID,
	).Scan(&user.ID, &user.SubjectID, &email, &user.FirstName, &user.LastName, &age, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by subject: %w", err)
	}

	if email.Valid {
		user.Email = email.String
	}
	if age.Valid {
		a := int(age.Int64)
		user.Age = &a
	}

	return user, nil
}

// Create は新規ユーザー行を作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, subject_id, email, first_name, last_name, age, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.SubjectID, nullString(user.Email), user.FirstName, user.LastName,
		nullInt(user.Age), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update は既存ユーザー行をsubject_idキーで上書き更新する。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET email = $2, first_name = $3, last_name = $4, age = $5, updated_at = $6
		 WHERE subject_id = $1`,
		user.SubjectID, nullString(user.Email), user.FirstName, user.LastName,
		nullInt(user.Age), user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", user.SubjectID)
	}
	return nil
}

// nullString は空文字列をNULLとして永続化するための変換を行う。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt はnilをNULLとして永続化するための変換を行う。
func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
