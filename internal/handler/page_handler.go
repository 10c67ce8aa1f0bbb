package handler

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/hitoshi/profiled/internal/middleware"
	"github.com/hitoshi/profiled/internal/model"
	"github.com/hitoshi/profiled/internal/profile"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticHandler は埋め込み静的アセットを配信するハンドラーを返す。
func StaticHandler() http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// ProfileServiceInterface はページハンドラーが必要とするプロフィールサービス。
type ProfileServiceInterface interface {
	Get(ctx context.Context, subjectID string) (*model.User, error)
	Update(ctx context.Context, claims *model.Claims, input profile.ProfileInput) (*model.User, error)
}

// CSRFGuardInterface はCSRFトークンの発行と検証のインターフェース。
type CSRFGuardInterface interface {
	Issue(ctx context.Context, session *model.Session) (string, error)
	Validate(session *model.Session, submitted string) error
}

// CSRFMetrics はCSRF検証失敗の計測インターフェース。nilの場合は計測しない。
type CSRFMetrics interface {
	IncCSRFRejection()
}

// PageHandler はHTMLページのHTTPハンドラー。
type PageHandler struct {
	profiles  ProfileServiceInterface
	guard     CSRFGuardInterface
	metrics   CSRFMetrics
	templates *template.Template
}

// NewPageHandler はPageHandlerを生成する。metricsはnilでもよい。
func NewPageHandler(profiles ProfileServiceInterface, guard CSRFGuardInterface, metrics CSRFMetrics) (*PageHandler, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &PageHandler{
		profiles:  profiles,
		guard:     guard,
		metrics:   metrics,
		templates: templates,
	}, nil
}

// homePageData はindex.htmlのテンプレートデータ。
type homePageData struct {
	Claims *model.Claims
}

// profilePageData はprofile.htmlのテンプレートデータ。
type profilePageData struct {
	Claims    *model.Claims
	User      *model.User
	CSRFToken string
	Saved     bool
	CSRFError bool
}

// Home は公開ホームページを表示する。ログイン済みの場合はクレームを反映する。
// GET /
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := homePageData{}
	if claims, err := middleware.ClaimsFromContext(r.Context()); err == nil {
		data.Claims = claims
	}
	h.render(w, "index.html", data)
}

// Profile はプロフィールフォームを表示する。
// フォームには保存済みの値とCSRFトークンを埋め込む。
// GET /profile
func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil || session.Data.User == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	claims := session.Data.User

	user, err := h.profiles.Get(r.Context(), claims.Sub)
	if err != nil {
		slog.Error("failed to load profile", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	token, err := h.guard.Issue(r.Context(), session)
	if err != nil {
		slog.Error("failed to issue csrf token", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	h.render(w, "profile.html", profilePageData{
		Claims:    claims,
		User:      user,
		CSRFToken: token,
		Saved:     query.Get("s") == "1",
		CSRFError: query.Get("e") == "csrf",
	})
}

// UpdateProfile はプロフィール更新フォームの送信を処理する。
// CSRFトークンが一致しない場合は変更を加えずエラーマーカー付きでリダイレクトする。
// POST /profile/update
func (h *PageHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil || session.Data.User == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if err := h.guard.Validate(session, r.PostFormValue("csrf_token")); err != nil {
		slog.Warn("csrf validation failed",
			slog.String("sub", session.Data.User.Sub),
		)
		if h.metrics != nil {
			h.metrics.IncCSRFRejection()
		}
		http.Redirect(w, r, "/profile?e=csrf", http.StatusSeeOther)
		return
	}

	input := profile.ProfileInput{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Age:       r.PostFormValue("age"),
	}

	if _, err := h.profiles.Update(r.Context(), session.Data.User, input); err != nil {
		slog.Error("failed to update profile", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/profile?s=1", http.StatusSeeOther)
}

// render はテンプレートを描画する。失敗時は500を返す。
func (h *PageHandler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
