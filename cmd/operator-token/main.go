// Command operator-token mints a signed operator JWT for local use against
// the scheduler admin API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/diagnosis/demo-scheduler/pkg/auth"
	"github.com/diagnosis/demo-scheduler/pkg/config"
	"github.com/google/uuid"
)

func main() {
	cfg := config.Load()

	id := flag.String("id", uuid.NewString(), "operator id (sub claim)")
	email := flag.String("email", "", "operator email")
	role := flag.String("role", auth.RoleOperator, "operator or admin")
	ttl := flag.Duration("ttl", cfg.Auth.OperatorTokenTTL, "token lifetime")
	flag.Parse()

	if *role != auth.RoleOperator && *role != auth.RoleAdmin {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	token, err := auth.NewOperatorToken(*id, *email, *role, cfg.Auth.JWTSecret, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
