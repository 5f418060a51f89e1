package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/kafe-adisyon/api/internal/database"
	"github.com/kafe-adisyon/api/internal/enum"
)

// GetSetting returns the value stored under key.
func (l *Ledger) GetSetting(ctx context.Context, key string) (string, error) {
	s, err := l.store.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrSettingNotFound
		}
		return "", classify("get_setting", err)
	}
	return s.Value, nil
}

// SetSetting stores value under key, replacing any previous value.
func (l *Ledger) SetSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrNameRequired
	}
	return l.withTx(ctx, "set_setting", func(store LedgerStore) error {
		if _, err := store.UpsertSetting(ctx, database.UpsertSettingParams{Key: key, Value: value}); err != nil {
			return fmt.Errorf("upsert setting: %w", err)
		}
		return nil
	})
}

// LastArchivedYear returns the most recent archived year, or 0 when
// nothing was archived yet.
func (l *Ledger) LastArchivedYear(ctx context.Context) (int, error) {
	v, err := l.GetSetting(ctx, enum.SettingLastArchivedYear)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return 0, nil
		}
		return 0, err
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: ignoring malformed %s setting %q", enum.SettingLastArchivedYear, v)
		return 0, nil
	}
	return year, nil
}
