package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

func RandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

// ShareToken returns a 32-character hex token. Generated once per
// share, never rotated by updates.
func ShareToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func NewRedisClient() (*redis.Client, error) {
	Addr := os.Getenv("REDIS_ADDR")
	if Addr == "" {
		return nil, fmt.Errorf("REDIS_ADDR environment variable not set")
	}
	Password := os.Getenv("REDIS_PW")
	DB, err := strconv.Atoi(os.Getenv("REDIS_DB"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB environment variable not set or is invalid")
	}
	return redis.NewClient(
		&redis.Options{
			Addr:     Addr,
			Password: Password,
			DB:       DB,
		}), nil
}
