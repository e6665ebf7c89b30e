// Command seed_admin creates the initial administrator account when the users
// table has none. Intended for first deployment and local development.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sistem-rt/portal-api/internal/models"
	"github.com/sistem-rt/portal-api/internal/repository"
	"github.com/sistem-rt/portal-api/pkg/config"
	"github.com/sistem-rt/portal-api/pkg/database"
)

func main() {
	nik := flag.String("nik", "", "administrator NIK (16 digits)")
	email := flag.String("email", "", "administrator email")
	password := flag.String("password", "", "administrator password")
	fullName := flag.String("name", "Ketua RT", "administrator full name")
	flag.Parse()

	if *nik == "" || *email == "" || *password == "" {
		log.Fatal("usage: seed_admin -nik <nik> -email <email> -password <password> [-name <name>]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := repository.NewUserRepository(db)
	count, err := users.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		log.Fatalf("failed to count administrators: %v", err)
	}
	if count > 0 {
		log.Printf("administrator already present (%d), nothing to do", count)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	admin := &models.User{
		NIK:          *nik,
		Email:        *email,
		Phone:        "-",
		PasswordHash: string(hash),
		FullName:     *fullName,
		PlaceOfBirth: "-",
		Gender:       "laki-laki",
		Address:      "-",
		Role:         models.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("failed to create administrator: %v", err)
	}
	log.Printf("administrator created: %s (%s)", admin.FullName, admin.ID)
}
