// Package store keeps collected spectra, source metadata and triggers in a SQL
// database.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hb9tf/burst/datasource"
	"github.com/hb9tf/burst/search"
)

const (
	deleteSourceTmpl = `DELETE FROM sources WHERE Identifier = ?;`
	insertSourceTmpl = `INSERT INTO sources (
		Identifier,
		Source,
		NFreq,
		DeltaF,
		Freq0,
		DeltaT,
		MJD,
		StartTime
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`
	getSourceTmpl = `SELECT
		Source,
		NFreq,
		DeltaF,
		Freq0,
		DeltaT,
		MJD,
		StartTime
	FROM
		sources
	WHERE
		Identifier = ?;`
	insertSpectrumTmpl = `INSERT INTO spectra (
		Identifier,
		Seq,
		Power
	) VALUES (?, ?, ?);`
	countSpectraTmpl = `SELECT
		COUNT(*)
	FROM
		spectra
	WHERE
		Identifier = ?;`
	getSpectraTmpl = `SELECT
		Seq,
		Power
	FROM
		spectra
	WHERE
		Identifier = ?
		AND Seq >= ?
		AND Seq < ?
	ORDER BY
		Seq ASC;`
	insertTriggerTmpl = `INSERT INTO triggers (
		ID,
		Identifier,
		Time,
		DMIndex,
		TimeIndex,
		SNR,
		Duration
	) VALUES (?, ?, ?, ?, ?, ?, ?);`
	getTriggerTmpl = `SELECT
		Identifier,
		Time,
		DMIndex,
		TimeIndex,
		SNR,
		Duration
	FROM
		triggers
	WHERE
		ID = ?;`
)

var (
	// ErrUnknownSource is returned when no metadata is stored for an identifier.
	ErrUnknownSource  = errors.New("unknown source")
	ErrUnknownTrigger = errors.New("unknown trigger")
)

// Source is the stored description of a data source.
type Source struct {
	Identifier string
	// Source names the kind of receiver, e.g. rtl_sdr.
	Source   string
	Geometry datasource.Geometry
}

type Store struct {
	DB      *sql.DB
	Dialect Dialect
}

// Open opens a database of the given dialect and creates the tables if needed.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s DB: %w", dialect.Name, err)
	}
	s := &Store{DB: db, Dialect: dialect}
	if err := s.CreateTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create tables: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) CreateTables(ctx context.Context) error {
	for _, stmt := range s.Dialect.createTables {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// PutSource stores or replaces the metadata of a source.
func (s *Store) PutSource(ctx context.Context, src Source) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.Dialect.rebind(deleteSourceTmpl), src.Identifier); err != nil {
		return err
	}
	g := src.Geometry
	if _, err := tx.ExecContext(ctx, s.Dialect.rebind(insertSourceTmpl),
		src.Identifier, src.Source, g.Channels.N, g.Channels.Delta, g.Channels.Ref, g.DeltaT, g.MJD, g.StartTime); err != nil {
		return err
	}
	return tx.Commit()
}

// Source returns the stored metadata of a source.
func (s *Store) Source(ctx context.Context, identifier string) (Source, error) {
	src := Source{Identifier: identifier}
	g := &src.Geometry
	err := s.DB.QueryRowContext(ctx, s.Dialect.rebind(getSourceTmpl), identifier).Scan(
		&src.Source, &g.Channels.N, &g.Channels.Delta, &g.Channels.Ref, &g.DeltaT, &g.MJD, &g.StartTime)
	if errors.Is(err, sql.ErrNoRows) {
		return Source{}, fmt.Errorf("%w: %q", ErrUnknownSource, identifier)
	}
	if err != nil {
		return Source{}, err
	}
	return src, nil
}

// AddSpectra appends spectra of a source in a single transaction.
func (s *Store) AddSpectra(ctx context.Context, identifier string, spectra []datasource.Spectrum) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statement, err := tx.PrepareContext(ctx, s.Dialect.rebind(insertSpectrumTmpl))
	if err != nil {
		return err
	}
	defer statement.Close()

	for _, sp := range spectra {
		if _, err := statement.ExecContext(ctx, identifier, sp.Seq, encodePower(sp.Power)); err != nil {
			return fmt.Errorf("unable to store spectrum %d: %w", sp.Seq, err)
		}
	}
	return tx.Commit()
}

// CountSpectra returns the number of spectra stored for a source.
func (s *Store) CountSpectra(ctx context.Context, identifier string) (int64, error) {
	var count int64
	return count, s.DB.QueryRowContext(ctx, s.Dialect.rebind(countSpectraTmpl), identifier).Scan(&count)
}

// Spectra returns the spectra of a source with from <= Seq < to, in order.
func (s *Store) Spectra(ctx context.Context, identifier string, from, to int64) ([]datasource.Spectrum, error) {
	rows, err := s.DB.QueryContext(ctx, s.Dialect.rebind(getSpectraTmpl), identifier, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spectra []datasource.Spectrum
	for rows.Next() {
		var sp datasource.Spectrum
		var raw []byte
		if err := rows.Scan(&sp.Seq, &raw); err != nil {
			return nil, err
		}
		if sp.Power, err = decodePower(raw); err != nil {
			return nil, fmt.Errorf("spectrum %d: %w", sp.Seq, err)
		}
		spectra = append(spectra, sp)
	}
	return spectra, rows.Err()
}

// Trigger is the stored form of a search.Trigger, without its data.
type Trigger struct {
	ID         string  `json:"id" binding:"required"`
	Identifier string  `json:"identifier" binding:"required"`
	Time       float64 `json:"time"`
	DMIndex    int     `json:"dmIndex" binding:"gte=0"`
	TimeIndex  int     `json:"timeIndex" binding:"gte=0"`
	SNR        float64 `json:"snr"`
	Duration   int     `json:"duration"`
}

// NewTrigger converts a trigger found in data of the identified source.
func NewTrigger(identifier string, t search.Trigger) Trigger {
	return Trigger{
		ID:         t.ID,
		Identifier: identifier,
		Time:       t.Time(),
		DMIndex:    t.DMIndex,
		TimeIndex:  t.TimeIndex,
		SNR:        t.SNR,
		Duration:   t.Duration,
	}
}

// AddTrigger stores a trigger.
func (s *Store) AddTrigger(ctx context.Context, t Trigger) error {
	_, err := s.DB.ExecContext(ctx, s.Dialect.rebind(insertTriggerTmpl),
		t.ID, t.Identifier, t.Time, t.DMIndex, t.TimeIndex, t.SNR, t.Duration)
	return err
}

// Trigger returns the stored trigger with the given ID.
func (s *Store) Trigger(ctx context.Context, id string) (Trigger, error) {
	t := Trigger{ID: id}
	err := s.DB.QueryRowContext(ctx, s.Dialect.rebind(getTriggerTmpl), id).Scan(
		&t.Identifier, &t.Time, &t.DMIndex, &t.TimeIndex, &t.SNR, &t.Duration)
	if errors.Is(err, sql.ErrNoRows) {
		return Trigger{}, fmt.Errorf("%w: %q", ErrUnknownTrigger, id)
	}
	if err != nil {
		return Trigger{}, err
	}
	return t, nil
}

func encodePower(power []float32) []byte {
	buf := &bytes.Buffer{}
	buf.Grow(4 * len(power))
	binary.Write(buf, binary.LittleEndian, power)
	return buf.Bytes()
}

func decodePower(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("power blob of %d bytes is not a float32 array", len(raw))
	}
	power := make([]float32, len(raw)/4)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, power); err != nil {
		return nil, err
	}
	return power, nil
}
