package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetItem returns the stored value for key. A missing key is not an error:
// ok is false and value is empty.
func (s *Store) GetItem(key string) (value string, ok bool, err error) {
	err = s.db.QueryRow(`SELECT value FROM storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get item %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) SetItem(key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO storage (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("set item %q: %w", key, err)
	}
	return nil
}

func (s *Store) RemoveItem(key string) error {
	_, err := s.db.Exec(`DELETE FROM storage WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("remove item %q: %w", key, err)
	}
	return nil
}

// RemoveItems deletes several keys in one transaction so a logout never
// leaves the token without the user or the other way round.
func (s *Store) RemoveItems(keys ...string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, k := range keys {
		if _, err := tx.Exec(`DELETE FROM storage WHERE key = ?`, k); err != nil {
			tx.Rollback()
			return fmt.Errorf("remove item %q: %w", k, err)
		}
	}
	return tx.Commit()
}

// SetItems writes several keys in one transaction.
func (s *Store) SetItems(items map[string]string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for k, v := range items {
		_, err := tx.Exec(
			`INSERT INTO storage (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, v, now,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("set item %q: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *Store) ListItems() ([]Item, error) {
	rows, err := s.db.Query(`SELECT key, value, updated_at FROM storage ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var updatedAt string
		if err := rows.Scan(&it.Key, &it.Value, &updatedAt); err != nil {
			return nil, err
		}
		it.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		items = append(items, it)
	}
	return items, rows.Err()
}
