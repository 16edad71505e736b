// Управление сессиями пользователей с использованием BoltDB.
//
// Основные возможности:
//   - Отзыв токенов при выходе из системы (blacklist).
//   - Автоматическая очистка устаревших записей.
package sessions

import (
	"encoding/binary"
	"log/slog"
	"os"
	"time"

	"github.com/boltdb/bolt"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/config"
)

type SessionsManager struct {
	db  *bolt.DB
	ttl time.Duration
}

const sessionsBucketName = "sessions"

func NewSessionsManager(cfg *config.Config, sessionTTL time.Duration) *SessionsManager {
	if cfg.SessionsDBPath == "" {
		cfg.SessionsDBPath = "sessions.db"
	}

	db, err := bolt.Open(cfg.SessionsDBPath, 0644, nil)
	if err != nil {
		slog.Error("Open sessions db", "err", err)
		os.Exit(1)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionsBucketName))
		return err
	}); err != nil {
		slog.Error("Create sessions bucket", "err", err)
		os.Exit(1)
	}

	sm := &SessionsManager{db, sessionTTL}

	go sm.cleanLoop()

	return sm
}

// BlacklistToken отзывает токен по его подписи. Отозванный токен перестает
// приниматься немедленно.
func (sm *SessionsManager) BlacklistToken(signature []byte) error {
	return sm.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sessionsBucketName))

		tm := make([]byte, 8)
		binary.LittleEndian.PutUint64(tm, uint64(time.Now().Unix()))

		return b.Put(signature, tm)
	})
}

func (sm *SessionsManager) IsTokenBlacklisted(signature []byte) (bool, error) {
	var blacklisted bool
	err := sm.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sessionsBucketName))

		blacklisted = b.Get(signature) != nil

		return nil
	})
	return blacklisted, err
}

func (sm *SessionsManager) Close() {
	sm.db.Close()
}

// Записи старше TTL токена удаляются: такой токен уже истек сам по себе.
func (sm *SessionsManager) cleanLoop() {
	for {
		keysToRemove := []string{}
		sm.db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket([]byte(sessionsBucketName))

			c := b.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				tm := time.Unix(int64(binary.LittleEndian.Uint64(v)), 0)

				if time.Since(tm) > sm.ttl {
					keysToRemove = append(keysToRemove, string(k))
				}
			}
			return nil
		})

		if len(keysToRemove) > 0 {
			sm.db.Update(func(tx *bolt.Tx) error {
				b := tx.Bucket([]byte(sessionsBucketName))

				for _, key := range keysToRemove {
					b.Delete([]byte(key))
				}

				return nil
			})
		}

		time.Sleep(time.Minute)
	}
}
