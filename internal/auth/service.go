// Package auth はOIDC認証フロー、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/profiled/internal/model"
	"github.com/hitoshi/profiled/internal/repository"
)

// IdentityProvider はOIDC認証プロバイダーのインターフェース。
// テスト時のモック差し替えとプロバイダー実装の分離のための抽象化。
type IdentityProvider interface {
	// AuthCodeURL はstateを埋め込んだ認可エンドポイントURLを生成する。
	AuthCodeURL(state string) string
	// Exchange は認可コードをトークンに交換し、検証済みクレームを返す。
	Exchange(ctx context.Context, code string) (*model.Claims, error)
	// LogoutURL はプロバイダー側セッションを終了するURLを生成する。
	LogoutURL(returnTo string) string
}

// LoginMetrics はログイン結果の計測インターフェース。nilの場合は計測しない。
type LoginMetrics interface {
	IncLoginSuccess()
	IncLoginFailure()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge   int           // セッション有効期間（秒）
	ProviderTimeout time.Duration // プロバイダー通信のタイムアウト
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	provider    IdentityProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	metrics     LoginMetrics
	config      ServiceConfig
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(
	provider IdentityProvider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	metrics LoginMetrics,
	config ServiceConfig,
) *Service {
	return &Service{
		provider:    provider,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		metrics:     metrics,
		config:      config,
	}
}

// LoginURL はOIDC認可エンドポイントURLを生成する。
func (s *Service) LoginURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// LogoutURL はプロバイダー側のログアウトURLを生成する。
func (s *Service) LogoutURL(returnTo string) string {
	return s.provider.LogoutURL(returnTo)
}

// HandleCallback はOIDCコールバックを処理し、セッションを発行する。
// 未登録ユーザーの場合はsubject単位でusersレコードを自動作成する。
// 登録済みユーザーの場合はプロバイダーから得たemailで既存レコードを更新する。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	// 1. 認可コードをトークンに交換し、検証済みクレームを取得
	exchangeCtx, cancel := context.WithTimeout(ctx, s.config.ProviderTimeout)
	defer cancel()

	claims, err := s.provider.Exchange(exchangeCtx, code)
	if err != nil {
		s.incLoginFailure()
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	// 2. subjectで既存ユーザーを検索
	user, err := s.userRepo.FindBySubjectID(ctx, claims.Sub)
	if err != nil {
		s.incLoginFailure()
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := time.Now()

	if user == nil {
		// 3a. 新規ユーザー: usersレコードを作成
		user = &model.User{
			ID:        uuid.New().String(),
			SubjectID: claims.Sub,
			Email:     claims.Email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			s.incLoginFailure()
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		slog.Info("new user created",
			slog.String("user_id", user.ID),
			slog.String("subject_id", user.SubjectID),
		)
	} else {
		// 3b. 既存ユーザー: プロバイダーのemailを権威として反映する。
		// 空のemailで既存値を上書きしない。
		if claims.Email != "" {
			user.Email = claims.Email
		}
		user.UpdatedAt = now
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.incLoginFailure()
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		slog.Info("existing user logged in",
			slog.String("user_id", user.ID),
			slog.String("subject_id", user.SubjectID),
		)
	}

	// 4. セッションを発行
	session, err := s.createSession(ctx, claims)
	if err != nil {
		s.incLoginFailure()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncLoginSuccess()
	}
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// createSession はクレームを格納したセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, claims *model.Claims) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		Data:      model.SessionData{User: claims},
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

func (s *Service) incLoginFailure() {
	if s.metrics != nil {
		s.metrics.IncLoginFailure()
	}
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
