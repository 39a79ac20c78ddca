package controllers

import (
	"context"
	"io"
	"sync"

	"audit-desk/config"
	"audit-desk/internal/dto"
	"audit-desk/internal/entities"
	"audit-desk/internal/services"
	apperrors "audit-desk/pkg/errors"
	"audit-desk/pkg/service"
	"audit-desk/pkg/types"
)

type receivedCall struct {
	caller services.Caller
	id     uint64
	raw    map[string]string
	files  map[config.Slot]string
}

type fakeProjectService struct {
	mu    sync.Mutex
	calls []receivedCall
	err   error
}

// record вычитывает файлы до возврата: контроллер закрывает их после вызова.
func (f *fakeProjectService) record(caller services.Caller, id uint64, raw map[string]string, files map[config.Slot]*dto.FileInput) {
	contents := make(map[config.Slot]string, len(files))
	for slot, file := range files {
		b, _ := io.ReadAll(file.Content)
		contents[slot] = file.Name + "|" + file.MimeType + "|" + string(b)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, receivedCall{caller: caller, id: id, raw: raw, files: contents})
}

func (f *fakeProjectService) Create(ctx context.Context, caller services.Caller, raw map[string]string, files map[config.Slot]*dto.FileInput) (uint64, error) {
	f.record(caller, 0, raw, files)
	if f.err != nil {
		return 0, f.err
	}
	return 42, nil
}

func (f *fakeProjectService) Update(ctx context.Context, caller services.Caller, id uint64, raw map[string]string, files map[config.Slot]*dto.FileInput) error {
	f.record(caller, id, raw, files)
	return f.err
}

func (f *fakeProjectService) Delete(ctx context.Context, caller services.Caller, id uint64) error {
	f.record(caller, id, nil, nil)
	return f.err
}

type fakeReadService struct {
	projects []dto.ProjectDTO
	filters  []types.Filter
	err      error
	// paginate: отдавать срез по Offset/Limit, как репозиторий
	paginate bool
}

func (f *fakeReadService) List(ctx context.Context, filter types.Filter) ([]dto.ProjectDTO, uint64, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, 0, f.err
	}
	total := uint64(len(f.projects))
	if !f.paginate {
		return f.projects, total, nil
	}
	from := min(filter.Offset, len(f.projects))
	to := min(from+filter.Limit, len(f.projects))
	return f.projects[from:to], total, nil
}

func (f *fakeReadService) Get(ctx context.Context, id uint64) (*dto.ProjectDTO, error) {
	for i := range f.projects {
		if f.projects[i].ID == id {
			return &f.projects[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeReadService) Years(ctx context.Context) ([]int, error) {
	return []int{2025, 2024}, nil
}

type fakeFileService struct {
	res *dto.SignedURLDTO
	err error
}

func (f *fakeFileService) SignedURL(ctx context.Context, path string) (*dto.SignedURLDTO, error) {
	if path == "" {
		return nil, apperrors.NewBadRequestError("Не указан путь к файлу")
	}
	return f.res, f.err
}

type fakeAuthService struct {
	users     map[uint64]*entities.User
	checkErr  error
	loggedOut []string
	loginErr  error
}

func (f *fakeAuthService) Login(ctx context.Context, payload dto.LoginDTO) (*entities.User, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	for _, u := range f.users {
		if u.Email == payload.Email {
			return u, nil
		}
	}
	return nil, apperrors.ErrInvalidCredentials
}

func (f *fakeAuthService) CurrentUser(ctx context.Context, userID uint64) (*entities.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeAuthService) IsAdmin(ctx context.Context, userID uint64) (bool, error) {
	u, ok := f.users[userID]
	return ok && u.IsAdmin, nil
}

func (f *fakeAuthService) CheckToken(ctx context.Context, claims *service.JwtCustomClaim) error {
	return f.checkErr
}

func (f *fakeAuthService) Logout(ctx context.Context, claims *service.JwtCustomClaim, scope string) error {
	f.loggedOut = append(f.loggedOut, scope)
	return nil
}

func (f *fakeAuthService) ChangePassword(ctx context.Context, userID uint64, payload dto.ChangePasswordDTO) error {
	return nil
}

func (f *fakeAuthService) RequestPasswordReset(ctx context.Context, payload dto.ForgotPasswordDTO) error {
	return nil
}

func (f *fakeAuthService) VerifyResetToken(ctx context.Context, payload dto.VerifyTokenDTO) (*dto.ResetSessionDTO, error) {
	return &dto.ResetSessionDTO{ResetSession: "session"}, nil
}

func (f *fakeAuthService) ResetPassword(ctx context.Context, payload dto.ResetPasswordDTO) error {
	return nil
}
