package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims はトークンに埋め込まれる認証情報
type Claims struct {
	UserID    int64
	Role      string
	ExpiresAt time.Time
}

// CreateSessionToken は claims から署名付きトークンを生成する。
// 形式: base64url("userID|role|expiresUnix") + "." + hex(HMAC-SHA256)
func CreateSessionToken(c Claims, secret []byte) string {
	payload := []byte(fmt.Sprintf("%d|%s|%d", c.UserID, c.Role, c.ExpiresAt.Unix()))
	return base64.URLEncoding.EncodeToString(payload) + "." + sign(payload, secret)
}

// VerifySessionToken はトークンを検証し claims を返す
func VerifySessionToken(token string, secret []byte, now time.Time) (Claims, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return Claims{}, ErrInvalidToken
	}
	payload, err := base64.URLEncoding.DecodeString(parts[0])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	if !hmac.Equal([]byte(sign(payload, secret)), []byte(parts[1])) {
		return Claims{}, ErrInvalidToken
	}

	fields := strings.Split(string(payload), "|")
	if len(fields) != 3 {
		return Claims{}, ErrInvalidToken
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	exp, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	c := Claims{UserID: id, Role: fields[1], ExpiresAt: time.Unix(exp, 0).UTC()}
	if !now.Before(c.ExpiresAt) {
		return Claims{}, ErrExpiredToken
	}
	return c, nil
}

func sign(payload, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

const sessionCookieName = "agency_session"
const minSecretLen = 32

// SessionCookieName はセッションクッキー名
func SessionCookieName() string {
	return sessionCookieName
}

// SessionSecretBytes は文字列からセッション署名用のバイト列を生成する（最低32バイト）
func SessionSecretBytes(s string) []byte {
	b := []byte(s)
	if len(b) < minSecretLen {
		out := make([]byte, minSecretLen)
		copy(out, b)
		return out
	}
	return b
}
