// Вспомогательные функции DAO: хеширование паролей и создание пользователя по умолчанию.
package dao

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/pbkdf2"
	"gorm.io/gorm"
)

const saltLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// HashPassword хеширует пароль в формате pbkdf2_sha256$<iters>$<salt>$<hash>.
func HashPassword(pass string) string {
	salt := make([]rune, 32)
	for i := range salt {
		nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(saltLetters))))
		salt[i] = rune(saltLetters[nBig.Int64()])
	}

	return fmt.Sprintf("pbkdf2_sha256$260000$%s$%s",
		string(salt),
		base64.StdEncoding.EncodeToString(pbkdf2.Key([]byte(pass), []byte(string(salt)), 260000, 32, sha256.New)),
	)
}

// AddDefaultUser создает администратора с генерируемым паролем. Пароль
// выводится в лог один раз при создании.
func AddDefaultUser(db *gorm.DB, email string) {
	pass, err := password.Generate(16, 4, 0, false, false)
	if err != nil {
		slog.Error("Generate admin password", "err", err)
		return
	}

	tm := time.Now()
	user := User{
		ID:              GenUUID(),
		Email:           email,
		Password:        HashPassword(pass),
		Username:        "admin",
		Role:            RoleUser,
		IsActive:        true,
		LastActive:      &tm,
		LastLoginIp:     "0.0.0.0",
		LastLoginUagent: "golang",
		TokenUpdatedAt:  &tm,
	}

	if err := db.Create(&user).Error; err != nil {
		slog.Error("Create default user", "err", err)
	} else {
		slog.Info("Default user created", "email", email, "password", pass)
	}
}
