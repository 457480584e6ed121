package user

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

// A password reset token reads "<day>-<mac>". day counts the days since resetEpoch (base 36);
// mac signs the user's ID, password hash and last login together with that day, so a new
// password or a login voids every token handed out before.

var (
	resetEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	resetScope = []byte("sportschool/password-reset")
	NowFunc    = time.Now // mockable

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// EncodeUID hides the user ID in password reset links.
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

func decodeUID(uid string) (string, error) {
	id, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", err
	}
	return string(id), nil
}

func resetDay(t time.Time) int64 {
	return int64(t.UTC().Sub(resetEpoch) / (24 * time.Hour))
}

// MakeToken issues a password reset token for usr, valid for core.Conf.PasswordResetTimeoutDelta.
func MakeToken(usr User) (string, error) {
	day := resetDay(NowFunc())
	mac, err := resetMAC(usr, day)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(day, 36) + "-" + mac, nil
}

func verifyToken(usr User, token string) error {
	dayPart, mac, ok := strings.Cut(token, "-")
	if !ok || dayPart == "" || mac == "" {
		return errInvalidToken
	}
	day, err := strconv.ParseInt(dayPart, 36, 64)
	if err != nil || day < 0 {
		return errInvalidToken
	}

	want, err := resetMAC(usr, day)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(want), []byte(mac)) {
		return errInvalidToken
	}

	maxAge := int64(core.Conf.PasswordResetTimeoutDelta / (24 * time.Hour))
	if resetDay(NowFunc())-day > maxAge {
		return errTokenExpired
	}
	return nil
}

func resetMAC(usr User, day int64) (string, error) {
	key := sha256.Sum256(append(append([]byte{}, resetScope...), core.Conf.SecretKey...))
	h := hmac.New(sha256.New, key[:])

	var buf [8]byte
	parts := [][]byte{[]byte(usr.ID), usr.PasswordHash}
	if !usr.LastLogin.IsZero() {
		binary.BigEndian.PutUint64(buf[:], uint64(usr.LastLogin.Unix()))
		parts = append(parts, append([]byte{}, buf[:]...))
	}
	binary.BigEndian.PutUint64(buf[:], uint64(day))
	parts = append(parts, buf[:])

	for _, p := range parts {
		if _, err := h.Write(p); err != nil {
			return "", errors.Wrap(err, "signing reset token")
		}
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}
