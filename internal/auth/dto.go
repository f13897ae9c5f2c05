// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

type TokenRequest struct {
	UserName string `json:"userName" validate:"required,max=256"`
	Password string `json:"password" validate:"required,max=128"`
}

type RefreshTokenRequest struct {
	Token        string `json:"token"        validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type TokenResponse struct {
	Token              string    `json:"token"`
	RefreshToken       string    `json:"refreshToken"`
	RefreshTokenExpiry time.Time `json:"refreshTokenExpiry"`
}

func ToTokenResponse(p *TokenPair) TokenResponse {
	return TokenResponse{
		Token:              p.AccessToken,
		RefreshToken:       p.RefreshToken,
		RefreshTokenExpiry: p.RefreshTokenExpiry,
	}
}
