package auth

import (
	"fmt"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// TokenIssuer emite tokens para los roles reconocidos por el API.
// Los usuarios viven fuera de este servicio: quien opera el despliegue firma el token.
type TokenIssuer struct {
	cfg JWTConfig
}

// NewTokenIssuer construye el emisor.
func NewTokenIssuer(cfg JWTConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg}
}

// IssuedToken token firmado y sus datos.
type IssuedToken struct {
	Token      string
	Subject    string
	Role       string
	ExpMinutes int
}

// Issue firma un token para subject con role. Devuelve ErrInvalidInput si el
// subject está vacío o el rol no existe.
func (i *TokenIssuer) Issue(subject, role string) (*IssuedToken, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: subject requerido", domain.ErrInvalidInput)
	}
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case jwt.RoleAdmin, jwt.RoleOperator, jwt.RoleViewer:
	default:
		return nil, fmt.Errorf("%w: rol %q desconocido", domain.ErrInvalidInput, role)
	}
	exp := i.cfg.ExpMinutes
	if exp <= 0 {
		exp = 60
	}
	token, err := jwt.Generate(i.cfg.Secret, subject, role, i.cfg.Issuer, exp)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: token, Subject: subject, Role: role, ExpMinutes: exp}, nil
}
