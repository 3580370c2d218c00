package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"AttendOK/pkg/errors"
	"AttendOK/pkg/response"
	"AttendOK/pkg/token"
)

// RefreshTokenRequest 刷新令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshTokenResponse 刷新令牌响应
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RefreshToken 用 refresh token 换取新的令牌对
// POST /v1/auth/token/refresh
func RefreshToken(ctx context.Context, c *app.RequestContext) {
	var req RefreshTokenRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	actorID, err := token.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		response.Error(ctx, c, errors.Unauthorized)
		return
	}

	accessToken, refreshToken, expiresIn, err := token.GenerateTokenPair(actorID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	})
}
