package auth

import (
	"context"
	"fmt"
	"net/url"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/hitoshi/profiled/internal/model"
)

// OIDCConfig はOIDCプロバイダー接続の設定。
type OIDCConfig struct {
	Domain       string // 例: "example.auth0.com"
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// OIDCProvider はOIDCディスカバリーに基づく認証プロバイダー実装。
// 認可コードフローでIDトークンを取得し、署名検証のうえクレームを返す。
type OIDCProvider struct {
	domain   string
	provider *oidc.Provider
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// インターフェース実装チェック
var _ IdentityProvider = (*OIDCProvider)(nil)

// NewOIDCProvider はディスカバリーエンドポイントからプロバイダー情報を取得し、
// OIDCProviderを生成する。
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig) (*OIDCProvider, error) {
	issuer := "https://" + cfg.Domain + "/"

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover oidc provider: %w", err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	return &OIDCProvider{
		domain:   cfg.Domain,
		provider: provider,
		config:   oauthConfig,
		verifier: verifier,
	}, nil
}

// AuthCodeURL はstateを埋め込んだ認可エンドポイントURLを生成する。
func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange は認可コードをトークンに交換し、IDトークンを検証してクレームを返す。
// IDトークンにプロフィールクレームが含まれない場合はUserInfoエンドポイントで補完する。
func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*model.Claims, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("no id_token in token response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id token: %w", err)
	}

	var claims model.Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse id token claims: %w", err)
	}

	// IDトークンにemail/nameが含まれないプロバイダー向けのフォールバック
	if claims.Email == "" || claims.Name == "" {
		userInfo, err := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
		if err == nil {
			var extra model.Claims
			if err := userInfo.Claims(&extra); err == nil {
				if claims.Email == "" {
					claims.Email = extra.Email
				}
				if claims.Name == "" {
					claims.Name = extra.Name
				}
				if claims.Picture == "" {
					claims.Picture = extra.Picture
				}
			}
		}
	}

	if claims.Sub == "" {
		return nil, fmt.Errorf("id token has no subject claim")
	}

	return &claims, nil
}

// LogoutURL はプロバイダー側セッションを終了するログアウトURLを生成する。
// returnToはログアウト完了後のリダイレクト先。
func (p *OIDCProvider) LogoutURL(returnTo string) string {
	params := url.Values{}
	params.Set("client_id", p.config.ClientID)
	params.Set("returnTo", returnTo)

	logoutURL := url.URL{
		Scheme:   "https",
		Host:     p.domain,
		Path:     "/v2/logout",
		RawQuery: params.Encode(),
	}
	return logoutURL.String()
}
