// Package models содержит доменную модель аккаунта пользователя,
// включающую учётные данные, тариф и дату создания.
// Структура используется в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Account представляет зарегистрированного пользователя сервиса.
type Account struct {
	UID          string    // Уникальный идентификатор аккаунта
	Email        string    // Электронная почта
	Username     string    // Имя пользователя (уникальное)
	PasswordHash string    // Хэш пароля
	Role         string    // Роль, admin или user
	Tier         Tier      // Текущий тариф аккаунта
	CreatedAt    time.Time // Дата создания аккаунта
}

// Profile — разрешённая личность вызывающего: идентификатор аккаунта
// и актуальный тариф. Именно эта структура кешируется резолвером сессии.
type Profile struct {
	AccountUID string `json:"account_uid"`
	Username   string `json:"username"`
	Tier       Tier   `json:"tier"`
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`       // Электронная почта
	Username string `json:"username" validate:"required,alphanum"` // Имя пользователя
	Password string `json:"password" validate:"required,min=8"`    // Пароль (минимум 8 символов)
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Username string `json:"username" validate:"required,alphanum"` // Имя пользователя
	Password string `json:"password" validate:"required"`          // Пароль
}
