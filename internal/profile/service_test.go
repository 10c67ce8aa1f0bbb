package profile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/profiled/internal/model"
	"github.com/hitoshi/profiled/internal/repository"
	"github.com/hitoshi/profiled/internal/security"
)

// --- モック定義 ---

type mockUserRepo struct {
	findBySubjectIDFn func(ctx context.Context, subjectID string) (*model.User, error)
	createFn          func(ctx context.Context, user *model.User) error
	updateFn          func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindBySubjectID(ctx context.Context, subjectID string) (*model.User, error) {
	if m.findBySubjectIDFn != nil {
		return m.findBySubjectIDFn(ctx, subjectID)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func newTestService(repo *mockUserRepo) *Service {
	return NewService(repo, security.NewFieldSanitizer(), nil)
}

func testClaims() *model.Claims {
	return &model.Claims{Sub: "auth0|abc", Email: "user@example.com"}
}

// --- テスト ---

func TestGet_ReturnsUser(t *testing.T) {
	repo := &mockUserRepo{
		findBySubjectIDFn: func(_ context.Context, subjectID string) (*model.User, error) {
			if subjectID != "auth0|abc" {
				t.Errorf("subjectID = %q, want %q", subjectID, "auth0|abc")
			}
			return &model.User{ID: "user-1", SubjectID: subjectID}, nil
		},
	}
	svc := newTestService(repo)

	user, err := svc.Get(context.Background(), "auth0|abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if user == nil || user.ID != "user-1" {
		t.Error("expected stored user")
	}
}

func TestGet_NotFound_ReturnsNil(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	user, err := svc.Get(context.Background(), "auth0|missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if user != nil {
		t.Error("missing user should be nil, not an error")
	}
}

func TestUpdate_ExistingUser_SanitizesAndStores(t *testing.T) {
	existing := &model.User{ID: "user-1", SubjectID: "auth0|abc", Email: "user@example.com"}

	var updated *model.User
	repo := &mockUserRepo{
		findBySubjectIDFn: func(_ context.Context, _ string) (*model.User, error) {
			return existing, nil
		},
		updateFn: func(_ context.Context, user *model.User) error {
			updated = user
			return nil
		},
	}
	svc := newTestService(repo)

	input := ProfileInput{
		FirstName: "  <script>alert(1)</script>Jane  ",
		LastName:  "O'Brien",
		Age:       "42",
	}
	user, err := svc.Update(context.Background(), testClaims(), input)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated == nil {
		t.Fatal("Update should persist the user")
	}
	if user.FirstName != "Jane" {
		t.Errorf("FirstName = %q, want %q", user.FirstName, "Jane")
	}
	if user.LastName != "O'Brien" {
		t.Errorf("LastName = %q, want %q", user.LastName, "O'Brien")
	}
	if user.Age == nil || *user.Age != 42 {
		t.Errorf("Age = %v, want 42", user.Age)
	}
}

func TestUpdate_MissingUser_CreatesFromClaims(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{
		createFn: func(_ context.Context, user *model.User) error {
			created = user
			return nil
		},
		updateFn: func(_ context.Context, _ *model.User) error {
			t.Error("Update should not be called when the record is missing")
			return nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), testClaims(), ProfileInput{FirstName: "Jane"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if created == nil {
		t.Fatal("missing record should be created")
	}
	if created.SubjectID != "auth0|abc" {
		t.Errorf("SubjectID = %q, want %q", created.SubjectID, "auth0|abc")
	}
	if created.Email != "user@example.com" {
		t.Errorf("Email = %q, want claims email", created.Email)
	}
	if created.ID == "" {
		t.Error("user ID should be generated")
	}
}

func TestUpdate_AgeHandling(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *int
	}{
		{"空文字列はnil", "", nil},
		{"整数でない入力はnil", "abc", nil},
		{"負数は0にクランプ", "-5", intPtr(0)},
		{"上限超過は150にクランプ", "999", intPtr(150)},
		{"範囲内はそのまま", "30", intPtr(30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var updated *model.User
			repo := &mockUserRepo{
				findBySubjectIDFn: func(_ context.Context, _ string) (*model.User, error) {
					return &model.User{ID: "user-1", SubjectID: "auth0|abc"}, nil
				},
				updateFn: func(_ context.Context, user *model.User) error {
					updated = user
					return nil
				},
			}
			svc := newTestService(repo)

			if _, err := svc.Update(context.Background(), testClaims(), ProfileInput{Age: tt.raw}); err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			if tt.want == nil {
				if updated.Age != nil {
					t.Errorf("Age = %d, want nil", *updated.Age)
				}
			} else {
				if updated.Age == nil || *updated.Age != *tt.want {
					t.Errorf("Age = %v, want %d", updated.Age, *tt.want)
				}
			}
		})
	}
}

func TestUpdate_LongName_TruncatedTo100Runes(t *testing.T) {
	var updated *model.User
	repo := &mockUserRepo{
		findBySubjectIDFn: func(_ context.Context, _ string) (*model.User, error) {
			return &model.User{ID: "user-1", SubjectID: "auth0|abc"}, nil
		},
		updateFn: func(_ context.Context, user *model.User) error {
			updated = user
			return nil
		},
	}
	svc := newTestService(repo)

	input := ProfileInput{FirstName: strings.Repeat("a", 150)}
	if _, err := svc.Update(context.Background(), testClaims(), input); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if len([]rune(updated.FirstName)) != model.MaxNameLength {
		t.Errorf("FirstName length = %d, want %d", len([]rune(updated.FirstName)), model.MaxNameLength)
	}
}

func TestUpdate_BumpsUpdatedAt(t *testing.T) {
	old := time.Now().Add(-time.Hour)
	var updated *model.User
	repo := &mockUserRepo{
		findBySubjectIDFn: func(_ context.Context, _ string) (*model.User, error) {
			return &model.User{ID: "user-1", SubjectID: "auth0|abc", UpdatedAt: old}, nil
		},
		updateFn: func(_ context.Context, user *model.User) error {
			updated = user
			return nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.Update(context.Background(), testClaims(), ProfileInput{}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.UpdatedAt.After(old) {
		t.Error("UpdatedAt should be bumped")
	}
}

func TestUpdate_NilClaims_ReturnsError(t *testing.T) {
	svc := newTestService(&mockUserRepo{})

	if _, err := svc.Update(context.Background(), nil, ProfileInput{}); err == nil {
		t.Error("nil claims should be rejected")
	}
}

func TestUpdate_RepositoryFailure_ReturnsError(t *testing.T) {
	repo := &mockUserRepo{
		findBySubjectIDFn: func(_ context.Context, _ string) (*model.User, error) {
			return nil, errors.New("db down")
		},
	}
	svc := newTestService(repo)

	if _, err := svc.Update(context.Background(), testClaims(), ProfileInput{}); err == nil {
		t.Error("repository failure should propagate")
	}
}

func intPtr(n int) *int {
	return &n
}
