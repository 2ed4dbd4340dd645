package auth

import (
	"net/http"
	"time"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/auth"
	"attendance/workforce/internal/repository/postgres/user"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is how long an access token stays valid.
const TokenTTL = 12 * time.Hour

type Controller struct {
	user   User
	tokens Tokens
	now    func() time.Time
}

func NewController(user User, tokens Tokens) *Controller {
	return &Controller{user: user, tokens: tokens, now: time.Now}
}

// SignIn godoc
//
//	@Summary		Sign in
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	object	true	"tenant_id, employee_id, password"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Router			/api/v1/sign-in [post]
func (uc Controller) SignIn(c *web.Context) error {
	var data user.SignInRequest

	err := c.BindFunc(&data, "TenantID", "EmployeeID", "Password")
	if err != nil {
		return c.RespondError(err)
	}

	detail, err := uc.user.GetByEmployeeID(c.Ctx, data.TenantID, data.EmployeeID)
	if err != nil {
		return c.RespondError(err)
	}

	if detail.Password == nil || detail.Role == nil {
		return c.RespondError(web.NewRequestError(errors.New("sign-in is not enabled for this employee"), http.StatusUnauthorized))
	}

	if err = bcrypt.CompareHashAndPassword([]byte(*detail.Password), []byte(data.Password)); err != nil {
		return c.RespondError(web.NewRequestError(errors.New("incorrect password"), http.StatusUnauthorized))
	}

	accessToken, err := uc.issue(auth.Claims{UserId: detail.ID, TenantId: detail.TenantID, Role: *detail.Role})
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"data": map[string]string{
			"access_token": accessToken,
		},
		"error": nil,
	}, http.StatusOK)
}

// RefreshToken exchanges a still valid token for one with a fresh expiry.
//
//	@Summary		Refresh token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	object	true	"access_token"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		400	{object}	map[string]interface{}
//	@Router			/api/v1/refresh-token [post]
func (uc Controller) RefreshToken(c *web.Context) error {
	var data user.RefreshTokenRequest

	err := c.BindFunc(&data, "AccessToken")
	if err != nil {
		return c.RespondError(err)
	}

	claims, err := uc.tokens.ValidateToken(data.AccessToken)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusUnauthorized))
	}

	accessToken, err := uc.issue(auth.Claims{UserId: claims.UserId, TenantId: claims.TenantId, Role: claims.Role})
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"data": map[string]string{
			"access_token": accessToken,
		},
		"error": nil,
	}, http.StatusOK)
}

func (uc Controller) issue(claims auth.Claims) (string, error) {
	now := uc.now()
	claims.StandardClaims = jwt.StandardClaims{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(TokenTTL).Unix(),
	}

	token, err := uc.tokens.GenerateToken(claims)
	if err != nil {
		return "", web.NewRequestError(errors.Wrap(err, "generating token"), http.StatusInternalServerError)
	}
	return token, nil
}
