package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword возвращается при попытке захешировать пустой пароль
var ErrEmptyPassword = errors.New("password cannot be empty")

// Hasher хеширует пароли через bcrypt.
// Соль генерируется на каждый вызов и хранится внутри digest.
type Hasher struct {
	// dummy используется для выравнивания времени ответа, когда пользователь не найден
	dummy []byte
	cost  int
}

// NewHasher creates a Hasher with the given bcrypt cost.
// Cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("folio-dummy-password"), cost)
	if err != nil {
		// GenerateFromPassword падает только на невалидном cost, а он уже проверен
		panic(fmt.Sprintf("bcrypt dummy hash: %v", err))
	}

	return &Hasher{cost: cost, dummy: dummy}
}

// Cost returns the bcrypt cost used for new digests.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt digest of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(digest), nil
}

// Verify reports whether plaintext matches digest.
// A malformed digest is reported as a mismatch.
func (h *Hasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// VerifyAbsent burns the same CPU as Verify and always returns false.
// Login calls it when the email is unknown.
func (h *Hasher) VerifyAbsent(plaintext string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
	return false
}
