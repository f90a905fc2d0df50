package main

import (
	"database/sql"
	"flag"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/verkstad/shop-orders/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	var dir string
	flag.StringVar(&dir, "dir", "./migrations", "directory with migration files")
	flag.Parse()

	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("goose: open db: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("goose: %v", err)
	}

	args := flag.Args()
	command := "up"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	if err := goose.Run(command, db, dir, args...); err != nil {
		log.Fatalf("goose %s: %v", command, err)
	}
	log.Printf("goose %s done", command)
}
