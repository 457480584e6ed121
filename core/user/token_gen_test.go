package user

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeVerifyToken(t *testing.T) {
	now := time.Now().UTC()
	usr := User{
		ID:        "0d6f4a1e-3c2b-4e5f-9a8b-7c6d5e4f3a2b",
		Name:      "T",
		Username:  "t",
		Email:     "t@test.test",
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	usr.SetActive(true)
	require.NoError(t, usr.SetPassword("pwd"))

	validToken, err := MakeToken(usr)
	require.NoError(t, err)

	// generate an expired token
	dayLate := 4 * 24 * time.Hour
	NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := MakeToken(usr)
	NowFunc = time.Now // reset
	require.NoError(t, err)

	loggedIn := usr
	loggedIn.LastLogin = now.Add(time.Minute)

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", usr: usr, wantErr: errInvalidToken},
		{name: "no separator", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "no mac", usr: usr, token: "1a2-", wantErr: errInvalidToken},
		{name: "day not base36", usr: usr, token: "1_2-c2lnbmF0dXJl", wantErr: errInvalidToken},
		{name: "forged mac", usr: usr, token: "1a2-c2lnbmF0dXJl", wantErr: errInvalidToken},
		{name: "other day", usr: usr, token: "zz" + validToken[strings.Index(validToken, "-"):], wantErr: errInvalidToken},
		{name: "expired token", usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "used after login", usr: loggedIn, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, verifyToken(tt.usr, tt.token))
		})
	}
}

func TestEncodeUID(t *testing.T) {
	usr := User{ID: "0d6f4a1e-3c2b-4e5f-9a8b-7c6d5e4f3a2b"}
	id, err := decodeUID(EncodeUID(usr))
	require.NoError(t, err)
	assert.Equal(t, usr.ID, id)

	_, err = decodeUID("***")
	assert.Error(t, err)
}

func Test_passwordPolicyViolation(t *testing.T) {
	tests := []struct {
		name string
		pwd  string
		want string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Kv7#p Lm2xq", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no special", pwd: "Kv7pLm2xqz", want: pwdComplexityTag},
		{name: "no upper", pwd: "kv7#plm2xq", want: pwdComplexityTag},
		{name: "like the username", pwd: "Olegovich1!", want: pwdAttrSimTag},
		{name: "cyrillic", pwd: "Пароль#2023ok", want: ""},
		{name: "good", pwd: "Kv7#pLm2xq", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, passwordPolicyViolation(tt.pwd, "Oleg", "olegovich", "oleg@test.ru"))
		})
	}
}
