// seed_admin crea el usuario administrador inicial (revisa, acuña y reclama documentos).
//
// Uso: go run ./cmd/seed_admin -email admin@climatecoin.io -password <secreto> [-name Admin]
// También lee ADMIN_EMAIL y ADMIN_PASSWORD si no se pasan flags.
// Si el email ya existe no modifica nada.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/climatecoin/carbon-api/internal/application/auth"
	"github.com/climatecoin/carbon-api/internal/domain"
	"github.com/climatecoin/carbon-api/internal/infrastructure/postgres"
	"github.com/climatecoin/carbon-api/pkg/config"
)

func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "email del administrador")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "password del administrador (mínimo 8 caracteres)")
	name := flag.String("name", "Admin", "nombre visible")
	flag.Parse()

	if *email == "" || len(*password) < 8 {
		fmt.Fprintln(os.Stderr, "email y password (>= 8 caracteres) son requeridos")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
		fmt.Fprintf(os.Stderr, "Migraciones: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	uc := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{Secret: cfg.JWT.Secret})
	user, err := uc.CreateAdmin(ctx, *email, *password, *name)
	if errors.Is(err, domain.ErrEmailAlreadyExists) {
		fmt.Printf("El administrador %s ya existe, nada que hacer\n", *email)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear administrador: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Administrador creado: %s (%s)\n", user.Email, user.ID)
}
