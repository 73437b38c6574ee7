// Command seed provisions the initial admin account so the platform can be
// bootstrapped before any teacher exists.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nebioudaniel/family-academy-api/internal/models"
	"github.com/nebioudaniel/family-academy-api/internal/repository"
	"github.com/nebioudaniel/family-academy-api/pkg/config"
	"github.com/nebioudaniel/family-academy-api/pkg/database"
)

func main() {
	email := flag.String("email", "", "admin email")
	name := flag.String("name", "Administrator", "admin display name")
	password := flag.String("password", "", "admin password (min 8 chars)")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}
	if len(*password) < 8 {
		log.Fatal("password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := users.ExistsByEmail(ctx, *email, "")
	if err != nil {
		log.Fatalf("check email: %v", err)
	}
	if exists {
		log.Fatalf("account %s already exists", *email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	admin := &models.User{
		Email:        *email,
		Name:         *name,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("create admin: %v", err)
	}

	fmt.Printf("admin account created: %s (%s)\n", admin.Email, admin.ID)
}
