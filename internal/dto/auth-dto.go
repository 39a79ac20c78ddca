package dto

type LoginDTO struct {
	Email    string `json:"email" validate:"required,custom_email"`
	Password string `json:"password" validate:"required"`
}

type LogoutDTO struct {
	Scope string `json:"scope" validate:"omitempty,oneof=local global"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,strong_password"`
}

type ForgotPasswordDTO struct {
	Email      string `json:"email" validate:"required,custom_email"`
	RedirectTo string `json:"redirect_to" validate:"omitempty,url"`
}

type VerifyTokenDTO struct {
	TokenHash string `json:"token_hash" validate:"required"`
}

type ResetPasswordDTO struct {
	ResetSession string `json:"reset_session" validate:"required"`
	NewPassword  string `json:"new_password" validate:"required,strong_password"`
}

type AuthResponseDTO struct {
	AccessToken string        `json:"accessToken"`
	User        UserPublicDTO `json:"user"`
}

type ResetSessionDTO struct {
	ResetSession string `json:"reset_session"`
}

type UserPublicDTO struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsAdmin  bool   `json:"is_admin"`
}
