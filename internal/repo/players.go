package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wbtracker/internal/domain"
)

const playerColumns = `id,username,COALESCE(rsn,''),rsn_history,COALESCE(clan,''),clan_history,alts,
total_events,event_dates,event_seconds,worlds_reported,supplies_reported,
warnings,warning_dates,suspensions,suspension_dates,notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (domain.Player, error) {
	var p domain.Player
	var rsnHist, clanHist, alts, eventDates, supplies, warnDates, suspDates string
	err := row.Scan(&p.ID, &p.Username, &p.RSN, &rsnHist, &p.Clan, &clanHist, &alts,
		&p.TotalEvents, &eventDates, &p.EventSeconds, &p.WorldsReported, &supplies,
		&p.Warnings, &warnDates, &p.Suspensions, &suspDates, &p.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	lists := []struct {
		raw string
		dst *[]string
	}{
		{rsnHist, &p.RSNHistory},
		{clanHist, &p.ClanHistory},
		{alts, &p.Alts},
		{eventDates, &p.EventDates},
		{warnDates, &p.WarningDates},
		{suspDates, &p.SuspensionDates},
	}
	for _, l := range lists {
		v, err := decodeList(l.raw)
		if err != nil {
			return p, err
		}
		*l.dst = v
	}
	p.SuppliesReported = map[string]int{}
	if supplies != "" {
		if err := json.Unmarshal([]byte(supplies), &p.SuppliesReported); err != nil {
			return p, fmt.Errorf("decode supplies: %w", err)
		}
	}
	return p, nil
}

// RegisterPlayer inserts the player if unknown; existing rows are untouched.
func (r Repo) RegisterPlayer(ctx context.Context, id, username string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO players(id,username,created_at,updated_at) VALUES (?,?,?,?)`,
		id, username, stamp(at), stamp(at))
	return err
}

func (r Repo) GetPlayer(ctx context.Context, id string) (domain.Player, error) {
	return scanPlayer(r.DB.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id=?`, id))
}

// ListPlayers orders by participation count, then username.
func (r Repo) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY total_events DESC, username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// RecordParticipation counts one event and prepends its date.
func (r Repo) RecordParticipation(ctx context.Context, id string, at time.Time) error {
	return r.prependWithCounter(ctx, id, "event_dates", "total_events", at)
}

// ApplyWarning counts one warning and prepends its date.
func (r Repo) ApplyWarning(ctx context.Context, id string, at time.Time) error {
	return r.prependWithCounter(ctx, id, "warning_dates", "warnings", at)
}

// ApplySuspension counts one suspension and prepends its date.
func (r Repo) ApplySuspension(ctx context.Context, id string, at time.Time) error {
	return r.prependWithCounter(ctx, id, "suspension_dates", "suspensions", at)
}

// prependWithCounter column names are package constants, never user input.
func (r Repo) prependWithCounter(ctx context.Context, id, listCol, countCol string, at time.Time) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT `+listCol+` FROM players WHERE id=?`, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		list, err := decodeList(raw)
		if err != nil {
			return err
		}
		encoded, err := encodeJSON(append([]string{stamp(at)}, list...))
		if err != nil {
			return err
		}
		return execOne(ctx, tx,
			`UPDATE players SET `+countCol+`=`+countCol+`+1, `+listCol+`=?, updated_at=? WHERE id=?`,
			encoded, stamp(at), id)
	})
}

// AddParticipationTime adds seconds of in-event presence.
func (r Repo) AddParticipationTime(ctx context.Context, id string, seconds int) error {
	return execOne(ctx, r.DB, `UPDATE players SET event_seconds=event_seconds+? WHERE id=?`, seconds, id)
}

// IncrementWorldsReported counts a world first reported by the player.
func (r Repo) IncrementWorldsReported(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, `UPDATE players SET worlds_reported=worlds_reported+1 WHERE id=?`, id)
}

// IncrementSupplyReported bumps the per-resource counter.
func (r Repo) IncrementSupplyReported(ctx context.Context, id string, res domain.Resource) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT supplies_reported FROM players WHERE id=?`, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		counts := map[string]int{}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &counts); err != nil {
				return fmt.Errorf("decode supplies: %w", err)
			}
		}
		counts[string(res)]++
		encoded, err := encodeJSON(counts)
		if err != nil {
			return err
		}
		return execOne(ctx, tx, `UPDATE players SET supplies_reported=? WHERE id=?`, encoded, id)
	})
}

// SetRSN sets the current in-game name, remembering new names in history.
func (r Repo) SetRSN(ctx context.Context, id, rsn string) error {
	return r.setWithHistory(ctx, id, "rsn", "rsn_history", rsn)
}

// SetClan sets the current clan, remembering new clans in history.
func (r Repo) SetClan(ctx context.Context, id, clan string) error {
	return r.setWithHistory(ctx, id, "clan", "clan_history", clan)
}

func (r Repo) setWithHistory(ctx context.Context, id, col, histCol, value string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT `+histCol+` FROM players WHERE id=?`, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		hist, err := decodeList(raw)
		if err != nil {
			return err
		}
		seen := false
		for _, h := range hist {
			if h == value {
				seen = true
				break
			}
		}
		if !seen {
			hist = append([]string{value}, hist...)
		}
		encoded, err := encodeJSON(hist)
		if err != nil {
			return err
		}
		return execOne(ctx, tx, `UPDATE players SET `+col+`=?, `+histCol+`=? WHERE id=?`, nullable(value), encoded, id)
	})
}

// SetNotes replaces the moderator notes.
func (r Repo) SetNotes(ctx context.Context, id, notes string) error {
	return execOne(ctx, r.DB, `UPDATE players SET notes=? WHERE id=?`, notes, id)
}
