package snapshot

import (
	"database/sql"

	"github.com/dmayorov/magnetophon/internal/store"
)

func migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create baseline snapshot and activity log tables",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS baseline_buckets (
						class      TEXT    NOT NULL,
						hour       INTEGER NOT NULL,
						n          INTEGER NOT NULL,
						mean       REAL    NOT NULL,
						s          REAL    NOT NULL,
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						PRIMARY KEY (class, hour)
					)`,

					`CREATE TABLE IF NOT EXISTS activity_log (
						id              INTEGER PRIMARY KEY AUTOINCREMENT,
						ts              DATETIME NOT NULL,
						seconds_off     INTEGER NOT NULL,
						seconds_on      INTEGER NOT NULL,
						business        REAL    NOT NULL,
						estimated_mean  REAL    NOT NULL,
						estimated_stdev REAL    NOT NULL,
						estimate_source TEXT    NOT NULL,
						bucket_mean     REAL    NOT NULL,
						neighbor_mean   REAL    NOT NULL,
						overall_mean    REAL    NOT NULL,
						threshold       REAL    NOT NULL,
						triggered       INTEGER NOT NULL,
						fired           INTEGER NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_activity_log_ts ON activity_log(ts)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
