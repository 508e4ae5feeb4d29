package storage

import (
	_ "embed"
)

const (
	insertMissionSQL = `
INSERT INTO missions (id,
                      start_time,
                      status,
                      config)
VALUES (?, ?, ?, ?)`

	finishMissionSQL = `
UPDATE missions
SET finish_time = ?,
    status      = ?
WHERE id = ?`

	selectMissionSQL = `
SELECT
    id,
    start_time,
    finish_time,
    status,
    config
FROM missions
WHERE
    id = ?`

	selectMissionsSQL = `
SELECT
    id,
    start_time,
    finish_time,
    status,
    config
FROM missions
ORDER BY start_time, id`

	upsertSiteSQL = `
INSERT INTO sites (mission_id,
                   idx,
                   x,
                   y,
                   color,
                   ambiguous,
                   marker,
                   diagnosis,
                   note,
                   symbol,
                   symbol_seen,
                   revisited,
                   updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (mission_id, idx) DO UPDATE SET x           = excluded.x,
                                            y           = excluded.y,
                                            color       = excluded.color,
                                            ambiguous   = excluded.ambiguous,
                                            marker      = excluded.marker,
                                            diagnosis   = excluded.diagnosis,
                                            note        = excluded.note,
                                            symbol      = excluded.symbol,
                                            symbol_seen = excluded.symbol_seen,
                                            revisited   = excluded.revisited,
                                            updated_at  = excluded.updated_at`

	selectSitesSQL = `
SELECT
    mission_id,
    idx,
    x,
    y,
    color,
    ambiguous,
    marker,
    diagnosis,
    note,
    symbol,
    symbol_seen,
    revisited,
    updated_at
FROM sites
WHERE
    mission_id = ?
ORDER BY idx`
)

//go:embed schema.sql
var initSchemaSQL string
