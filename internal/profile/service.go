// Package profile はプロフィールの取得・更新のビジネスロジックを提供する。
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/profiled/internal/model"
	"github.com/hitoshi/profiled/internal/repository"
	"github.com/hitoshi/profiled/internal/security"
)

// ProfileInput はフォームから送信された更新内容。値はすべて未加工の文字列。
type ProfileInput struct {
	FirstName string
	LastName  string
	Age       string
}

// UpdateMetrics はプロフィール更新の計測インターフェース。nilの場合は計測しない。
type UpdateMetrics interface {
	IncProfileUpdate()
}

// Service はプロフィールに関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	sanitizer *security.FieldSanitizer
	metrics   UpdateMetrics
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(userRepo repository.UserRepository, sanitizer *security.FieldSanitizer, metrics UpdateMetrics) *Service {
	return &Service{
		userRepo:  userRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// Get はsubjectに紐づくユーザーレコードを取得する。
// 未登録の場合はnilを返す（エラーではない）。
func (s *Service) Get(ctx context.Context, subjectID string) (*model.User, error) {
	user, err := s.userRepo.FindBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Update はフォーム入力をサニタイズしてユーザーレコードに反映する。
// レコードが存在しない場合はクレームからの情報で新規作成する（upsert）。
func (s *Service) Update(ctx context.Context, claims *model.Claims, input ProfileInput) (*model.User, error) {
	if claims == nil || claims.Sub == "" {
		return nil, fmt.Errorf("claims with subject are required")
	}

	firstName := s.sanitizer.SanitizeName(input.FirstName)
	lastName := s.sanitizer.SanitizeName(input.LastName)
	age := s.parseAge(input.Age)

	user, err := s.userRepo.FindBySubjectID(ctx, claims.Sub)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := time.Now()

	if user == nil {
		user = &model.User{
			ID:        uuid.New().String(),
			SubjectID: claims.Sub,
			Email:     claims.Email,
			FirstName: firstName,
			LastName:  lastName,
			Age:       age,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	} else {
		user.FirstName = firstName
		user.LastName = lastName
		user.Age = age
		user.UpdatedAt = now
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	if s.metrics != nil {
		s.metrics.IncProfileUpdate()
	}
	slog.Info("profile updated", slog.String("user_id", user.ID))
	return user, nil
}

// parseAge は文字列の年齢入力を検証済みの値に変換する。
// 空文字列または整数でない入力はnil（未設定）として扱う。
func (s *Service) parseAge(raw string) *int {
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	n = security.ClampAge(n)
	return &n
}
