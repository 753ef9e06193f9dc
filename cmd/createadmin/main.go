// createadmin — утилита для создания администратора.
// Публичная регистрация всегда выдаёт роль user, поэтому первого
// админа заводим отсюда.
//
// Запуск: go run ./cmd/createadmin -username root -email root@example.com -password секрет
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/ecoquest/internal/app"
	"serotonyl.ru/ecoquest/internal/common"
	"serotonyl.ru/ecoquest/internal/config"
	"serotonyl.ru/ecoquest/internal/features/account"
)

func main() {
	username := flag.String("username", "", "имя администратора")
	email := flag.String("email", "", "email администратора")
	password := flag.String("password", "", "пароль (минимум 6 символов)")
	flag.Parse()

	if *username == "" || *email == "" || *password == "" {
		fmt.Println("Использование: go run ./cmd/createadmin -username <имя> -email <email> -password <пароль>")
		os.Exit(1)
	}

	log.SetLevel(log.WarnLevel)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Не удалось инициализировать приложение")
	}

	u, err := application.Accounts.Register(ctx, account.RegisterInput{
		Username: *username,
		Email:    *email,
		Password: *password,
		Role:     common.RoleAdmin,
	})
	if err != nil {
		application.Close()
		log.WithError(err).Fatal("Не удалось создать администратора")
	}

	application.Close()
	fmt.Printf("Администратор создан: %s (%s)\n", u.Username, u.ID)
}
