// Command staff promotes a registered account to the STAFF role, or back
// to CUSTOMER with -demote.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/database"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

func main() {
	email := flag.String("email", "", "email of the account to change")
	demote := flag.Bool("demote", false, "set the role back to CUSTOMER")
	flag.Parse()
	if *email == "" {
		log.Fatal("-email is required")
	}

	_ = godotenv.Load()
	cfg := config.Load()
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := repository.NewUserRepo(db)
	u, err := users.GetByEmail(ctx, *email)
	if errors.Is(err, sql.ErrNoRows) {
		log.Fatalf("no account for %s", *email)
	}
	if err != nil {
		log.Fatalf("lookup: %v", err)
	}

	role := model.RoleStaff
	if *demote {
		role = model.RoleCustomer
	}
	if err := users.SetRole(ctx, u.ID, role); err != nil {
		log.Fatalf("set role: %v", err)
	}
	log.Printf("%s (id %d) is now %s", u.Email, u.ID, role)
}
