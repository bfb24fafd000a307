// Package validation содержит функции валидации входных данных.
package validation

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/mmeshcher/cygree/internal/apperr"
	"github.com/mmeshcher/cygree/internal/model"
)

const (
	// MaxMass задаёт верхнюю границу массы одной заявки, кг (DECIMAL(6,2)).
	MaxMass = 9999.99
	// MaxPoints задаёт верхнюю границу баллов в одной награде или поощрении.
	MaxPoints = 1_000_000_000
	// MaxMessageLen задаёт максимальную длину уведомления в символах.
	MaxMessageLen = 1000
)

// maxExactHundredths ограничивает сотые доли диапазоном, где float64 точно представляет целые.
const maxExactHundredths = 1 << 53

// ToHundredths переводит значение с двумя знаками после запятой в сотые доли.
// Значения вне точного диапазона float64 отвергаются.
func ToHundredths(v float64) (int64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	scaled := v * 100
	if math.Abs(scaled) > maxExactHundredths {
		return 0, false
	}
	rounded := math.Round(scaled)
	if math.Abs(scaled-rounded) > 1e-6 {
		return 0, false
	}
	return int64(rounded), true
}

// Mass проверяет заявленную массу и возвращает её в сотых долях килограмма.
func Mass(mass float64) (int64, error) {
	if !(mass > 0) {
		return 0, apperr.Validation("declared mass must be positive")
	}
	if mass > MaxMass {
		return 0, apperr.Validation("declared mass must not exceed %.2f kg", MaxMass)
	}
	h, ok := ToHundredths(mass)
	if !ok || h <= 0 {
		return 0, apperr.Validation("declared mass must have at most two decimal places")
	}
	return h, nil
}

// Points проверяет неотрицательное количество баллов и возвращает его в сотых долях.
func Points(points float64) (int64, error) {
	if points < 0 {
		return 0, apperr.Validation("points must not be negative")
	}
	if points > MaxPoints {
		return 0, apperr.Validation("points must not exceed %d", MaxPoints)
	}
	h, ok := ToHundredths(points)
	if !ok {
		return 0, apperr.Validation("points must have at most two decimal places")
	}
	return h, nil
}

// Message проверяет текст уведомления.
func Message(msg string) (string, error) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "", apperr.Validation("message must not be empty")
	}
	if utf8.RuneCountInString(msg) > MaxMessageLen {
		return "", apperr.Validation("message must not exceed %d characters", MaxMessageLen)
	}
	return msg, nil
}

// Importance разбирает уровень важности, пустое значение означает Low.
func Importance(s string) (model.Importance, error) {
	switch model.Importance(s) {
	case "":
		return model.ImportanceLow, nil
	case model.ImportanceLow, model.ImportanceMedium, model.ImportanceHigh:
		return model.Importance(s), nil
	}
	return "", apperr.Validation("unknown importance level %q", s)
}

// RewardType разбирает тип поощрения.
func RewardType(s string) (model.RewardType, error) {
	switch model.RewardType(s) {
	case model.RewardGiftCoupon, model.RewardCash, model.RewardOffer:
		return model.RewardType(s), nil
	}
	return "", apperr.Validation("unknown reward type %q", s)
}

// RegistrationRole разбирает роль при регистрации. Администратора создать нельзя.
func RegistrationRole(s string) (model.Role, error) {
	switch model.Role(s) {
	case "":
		return model.RoleClient, nil
	case model.RoleClient, model.RoleAgent:
		return model.Role(s), nil
	}
	return "", apperr.Validation("role %q cannot be registered", s)
}

// Credentials проверяет логин и пароль.
func Credentials(login, password string) error {
	if strings.TrimSpace(login) == "" || password == "" {
		return apperr.Validation("login and password are required")
	}
	// bcrypt обрезает всё после 72 байт
	if len(password) > 72 {
		return apperr.Validation("password is too long")
	}
	return nil
}
