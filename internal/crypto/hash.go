package crypto

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch возвращается, если пароль не совпадает с хешем
var ErrPasswordMismatch = errors.New("password does not match")

// HashCost стоимость bcrypt. Тесты могут понижать ее до bcrypt.MinCost
var HashCost = bcrypt.DefaultCost

// HashPassword хеширует пароль с использованием bcrypt.
// Пароль в открытом виде нигде не сохраняется
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword проверяет, соответствует ли пароль сохраненному хешу.
// Возвращает ErrPasswordMismatch при несовпадении
func VerifyPassword(password, hash string) error {
	if hash == "" {
		return fmt.Errorf("hash cannot be empty")
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("failed to compare password: %w", err)
	}

	return nil
}

// dummyHash используется для выравнивания времени ответа при неизвестном email.
// Создается при первом вызове с текущим HashCost
var (
	dummyOnce sync.Once
	dummyHash []byte
)

// BurnCompare выполняет сравнение с фиктивным хешем и ничего не возвращает
func BurnCompare(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("gophgram-dummy-password"), HashCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
