// issue_token firma un JWT con el JWT_SECRET de la configuración.
//
// Uso: go run ./cmd/issue_token -sub bodega-1 -role operator
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

func main() {
	sub := flag.String("sub", "", "identificador del usuario o sistema")
	role := flag.String("role", jwt.RoleViewer, "admin | operator | viewer")
	exp := flag.Int("exp", 0, "minutos de validez (0 = JWT_EXPIRATION_MINUTES)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	jwtCfg := auth.JWTConfig{Secret: cfg.JWT.Secret, ExpMinutes: cfg.JWT.Expiration, Issuer: cfg.JWT.Issuer}
	if *exp > 0 {
		jwtCfg.ExpMinutes = *exp
	}

	out, err := auth.NewTokenIssuer(jwtCfg).Issue(*sub, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emitir token: %v\n", err)
		os.Exit(2)
	}
	fmt.Fprintf(os.Stderr, "sub=%s role=%s exp=%dm\n", out.Subject, out.Role, out.ExpMinutes)
	fmt.Println(out.Token)
}
