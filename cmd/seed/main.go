package main

import (
	"context"
	"log"

	"consult-system/pkg/config"
	"consult-system/pkg/database/postgresql"
	"consult-system/seeders"
)

func main() {
	cfg := config.New()

	pool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer pool.Close()

	if err := seeders.Run(context.Background(), pool); err != nil {
		log.Fatalf("сидирование завершилось с ошибкой: %v", err)
	}
	log.Println("✅ Данные успешно загружены")
}
