package errors

import (
	"fmt"
	"net/http"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenRevoked         = fmt.Errorf("токен отозван")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")
	ErrTokenIsNotRefresh    = fmt.Errorf("токен не является refresh-токеном")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrAccountLocked      = fmt.Errorf("учётная запись временно заблокирована")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")
	ErrWeakPassword       = fmt.Errorf("пароль должен содержать не менее 8 символов, строчную и заглавную букву и цифру")
	ErrInvalidResetToken  = fmt.Errorf("неверный или истёкший токен сброса пароля")

	// Контекст
	ErrUserIDNotFoundInContext = fmt.Errorf("UserID не найден в контексте запроса")
	ErrUserNotFound            = fmt.Errorf("пользователь не найден")

	// Общие
	ErrNotFound       = fmt.Errorf("запись не найдена")
	ErrBadRequest     = fmt.Errorf("неверный запрос")
	ErrInternalServer = fmt.Errorf("внутренняя ошибка сервера")
)

// HttpError - ошибка уровня HTTP: код, сообщение для клиента, исходная ошибка и детали.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details interface{}
	Context map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, ctx map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: ctx}
}

func NewBadRequestError(message string) *HttpError {
	return NewHttpError(http.StatusBadRequest, message, ErrBadRequest, nil)
}

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError - ошибки валидации полей формы, по списку сообщений на поле.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string { return "ошибка валидации" }

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// PipelineKind - вид сбоя пайплайна записи проекта.
type PipelineKind string

const (
	KindInvalidFileType      PipelineKind = "InvalidFileType"
	KindFileTooLarge         PipelineKind = "FileTooLarge"
	KindUploadFailed         PipelineKind = "UploadFailed"
	KindMetadataInsertFailed PipelineKind = "MetadataInsertFailed"
	KindPipelineFailure      PipelineKind = "PipelineFailure"
	KindSignedURLError       PipelineKind = "SignedUrlError"
)

// PipelineError сохраняет исходное сообщение хранилища в Message.
type PipelineError struct {
	Kind    PipelineKind
	Slot    string
	Message string
	Err     error
}

func (e *PipelineError) Error() string { return e.Message }

func (e *PipelineError) Unwrap() error { return e.Err }

func NewPipelineError(kind PipelineKind, slot string, err error, format string, args ...interface{}) *PipelineError {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &PipelineError{Kind: kind, Slot: slot, Message: msg, Err: err}
}

// HTTPStatus сопоставляет вид сбоя с HTTP-кодом.
func (e *PipelineError) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidFileType:
		return http.StatusUnsupportedMediaType
	case KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindSignedURLError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
