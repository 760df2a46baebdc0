package dto

type SignUpDTO struct {
	ID       string `json:"id"       validate:"required,loginid"`
	Password string `json:"password" validate:"required"`
}

type SignInDTO struct {
	ID       string `json:"id"       validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type LogoutDTO struct {
	AccessToken string `json:"accessToken" validate:"required"`
}
