package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SohaibShaar/waiting-system-sub001/internal/utils"
)

// AuthHandler issues operator tokens.  There are no per-operator
// accounts: every desk shares one password, the operator field only
// labels who pressed the call button.
type AuthHandler struct {
	JWTSecret   string
	PassHash    string
	TokenTTLMin int
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(jwtSecret, passHash string, ttlMin int) *AuthHandler {
	if jwtSecret == "" || passHash == "" {
		panic("empty secret passed to NewAuthHandler")
	}
	return &AuthHandler{JWTSecret: jwtSecret, PassHash: passHash, TokenTTLMin: ttlMin}
}

type loginRequest struct {
	Operator string `json:"operator"`
	Password string `json:"password"`
}

// Login verifies the shared password and returns a signed token for
// the named operator.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Operator == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "operator is required"})
	}
	if !utils.VerifyPassword(h.PassHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewOperatorToken(h.JWTSecret, req.Operator, h.TokenTTLMin)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":      tok.Token,
		"expires_at": tok.Exp,
	})
}
