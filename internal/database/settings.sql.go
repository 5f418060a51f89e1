package database

import "context"

const getSetting = `SELECT key, value FROM settings WHERE key = $1`

func (q *Queries) GetSetting(ctx context.Context, key string) (Setting, error) {
	var s Setting
	err := q.db.QueryRow(ctx, getSetting, key).Scan(&s.Key, &s.Value)
	return s, err
}

const upsertSetting = `
INSERT INTO settings (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
RETURNING key, value
`

type UpsertSettingParams struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) (Setting, error) {
	var s Setting
	err := q.db.QueryRow(ctx, upsertSetting, arg.Key, arg.Value).Scan(&s.Key, &s.Value)
	return s, err
}
