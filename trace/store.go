// Package trace persists sampler output in SQLite.
//
// A Store holds any number of runs, each identified by a random UUID and
// fixed to a dimension count at creation. Samples are stored as
// little-endian float64 blobs and read back in recording order.
package trace

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/katalvlaran/gradsample/chain"
	"github.com/katalvlaran/gradsample/matrix"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	label       TEXT NOT NULL,
	dims        INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	run_id      TEXT NOT NULL,
	idx         INTEGER NOT NULL,
	iteration   INTEGER NOT NULL,
	acceptance  REAL NOT NULL,
	vector      BLOB NOT NULL,
	PRIMARY KEY (run_id, idx),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

var (
	// ErrUnknownRun reports a run id the store has no record of.
	ErrUnknownRun = errors.New("trace: unknown run")
	// ErrDimensionMismatch reports a sample whose length differs from its run's.
	ErrDimensionMismatch = errors.New("trace: sample dimension mismatch")
	// ErrEmptyRun reports a summary request for a run without samples.
	ErrEmptyRun = errors.New("trace: run has no samples")
)

const insertSampleSQL = `INSERT INTO samples (run_id, idx, iteration, acceptance, vector) VALUES (?, ?, ?, ?, ?)`

// Store manages sampler runs in SQLite.
type Store struct {
	db     *sql.DB
	insert *sql.Stmt // insertSampleSQL, prepared once
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("trace: open db: %w", err)
	}
	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("trace: migrate: %w", err)
		}
	}
	insert, err := db.Prepare(insertSampleSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: prepare insert: %w", err)
	}

	return &Store{db: db, insert: insert}, nil
}

// Close releases the prepared statement and the database connection.
func (s *Store) Close() error {
	return errors.Join(s.insert.Close(), s.db.Close())
}

// RunInfo describes a stored run.
type RunInfo struct {
	ID        uuid.UUID
	Label     string
	Dims      int
	CreatedAt time.Time
}

// Run is a handle for appending to one run. It implements chain.Sink.
type Run struct {
	RunInfo
	store *Store
}

var _ chain.Sink = (*Run)(nil)

// Record implements chain.Sink. The run's dimension is known, so no lookup
// precedes the insert.
func (r *Run) Record(smp chain.Sample) error {
	if len(smp.Vector) != r.Dims {
		return fmt.Errorf("trace: Record: len %d, run has %d: %w", len(smp.Vector), r.Dims, ErrDimensionMismatch)
	}

	return r.store.insertSample(r.ID, smp)
}

// NewRun registers a run of dims-dimensional samples.
func (s *Store) NewRun(label string, dims int) (*Run, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("trace: NewRun: dims %d: %w", dims, ErrDimensionMismatch)
	}
	info := RunInfo{ID: uuid.New(), Label: label, Dims: dims, CreatedAt: time.Now().UTC()}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, label, dims, created_at) VALUES (?, ?, ?, ?)`,
		info.ID.String(), label, dims, info.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("trace: insert run: %w", err)
	}

	return &Run{RunInfo: info, store: s}, nil
}

// Run looks up a stored run.
func (s *Store) Run(id uuid.UUID) (*Run, error) {
	var (
		info    = RunInfo{ID: id}
		created string
	)
	err := s.db.QueryRow(`SELECT label, dims, created_at FROM runs WHERE run_id = ?`, id.String()).
		Scan(&info.Label, &info.Dims, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trace: run %s: %w", id, ErrUnknownRun)
	}
	if err != nil {
		return nil, fmt.Errorf("trace: query run: %w", err)
	}
	if info.CreatedAt, err = parseCreated(created); err != nil {
		return nil, fmt.Errorf("trace: run %s: %w", id, err)
	}

	return &Run{RunInfo: info, store: s}, nil
}

// Runs lists stored runs, oldest first.
func (s *Store) Runs() ([]RunInfo, error) {
	rows, err := s.db.Query(`SELECT run_id, label, dims, created_at FROM runs ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("trace: query runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var info RunInfo
		var id, created string
		if err := rows.Scan(&id, &info.Label, &info.Dims, &created); err != nil {
			return nil, fmt.Errorf("trace: scan run: %w", err)
		}
		if info.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("trace: run id %q: %w", id, err)
		}
		if info.CreatedAt, err = parseCreated(created); err != nil {
			return nil, fmt.Errorf("trace: run %s: %w", id, err)
		}
		out = append(out, info)
	}

	return out, rows.Err()
}

// Append stores smp under run id after looking the run up. Its Index must be
// unique within the run. Hold a *Run and use Record when appending many.
func (s *Store) Append(id uuid.UUID, smp chain.Sample) error {
	run, err := s.Run(id)
	if err != nil {
		return err
	}

	return run.Record(smp)
}

func (s *Store) insertSample(id uuid.UUID, smp chain.Sample) error {
	_, err := s.insert.Exec(id.String(), smp.Index, smp.Iteration, smp.Acceptance, encodeVector(smp.Vector))
	if err != nil {
		return fmt.Errorf("trace: insert sample %d: %w", smp.Index, err)
	}

	return nil
}

func parseCreated(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("created_at %q: %w", v, err)
	}

	return t, nil
}

// Samples returns the samples of run id ordered by Index.
func (s *Store) Samples(id uuid.UUID) ([]chain.Sample, error) {
	run, err := s.Run(id)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT idx, iteration, acceptance, vector FROM samples WHERE run_id = ? ORDER BY idx`, id.String())
	if err != nil {
		return nil, fmt.Errorf("trace: query samples: %w", err)
	}
	defer rows.Close()

	var out []chain.Sample
	for rows.Next() {
		var smp chain.Sample
		var blob []byte
		if err := rows.Scan(&smp.Index, &smp.Iteration, &smp.Acceptance, &blob); err != nil {
			return nil, fmt.Errorf("trace: scan sample: %w", err)
		}
		if smp.Vector, err = decodeVector(blob, run.Dims); err != nil {
			return nil, err
		}
		out = append(out, smp)
	}

	return out, rows.Err()
}

// Summary holds per-coordinate statistics of a run.
type Summary struct {
	Count          int
	Mean           []float64
	Covariance     *matrix.Dense // unbiased; nil when Count < 2
	MeanAcceptance float64
}

// Summary computes the sample mean and covariance of run id.
func (s *Store) Summary(id uuid.UUID) (Summary, error) {
	samples, err := s.Samples(id)
	if err != nil {
		return Summary{}, err
	}
	sum, err := Summarize(samples)
	if err != nil {
		return Summary{}, fmt.Errorf("trace: run %s: %w", id, err)
	}

	return sum, nil
}

// Summarize computes the statistics of in-memory samples of equal length.
func Summarize(samples []chain.Sample) (Summary, error) {
	if len(samples) == 0 {
		return Summary{}, ErrEmptyRun
	}
	dims := len(samples[0].Vector)
	flat := make([]float64, 0, len(samples)*dims)
	sum := Summary{Count: len(samples)}
	for _, smp := range samples {
		if len(smp.Vector) != dims {
			return Summary{}, fmt.Errorf("trace: Summarize: sample %d: %w", smp.Index, ErrDimensionMismatch)
		}
		flat = append(flat, smp.Vector...)
		sum.MeanAcceptance += smp.Acceptance
	}
	sum.MeanAcceptance /= float64(len(samples))

	if len(samples) == 1 {
		sum.Mean = slices.Clone(samples[0].Vector)
		return sum, nil
	}
	X, err := matrix.NewDenseFrom(len(samples), dims, flat)
	if err != nil {
		return Summary{}, fmt.Errorf("trace: Summarize: %w", err)
	}
	cov, mean, err := matrix.Covariance(X)
	if err != nil {
		return Summary{}, fmt.Errorf("trace: Summarize: %w", err)
	}
	sum.Mean = mean
	sum.Covariance = cov.(*matrix.Dense)

	return sum, nil
}

// StdDev returns the square roots of the covariance diagonal, or nil when
// no covariance is available.
func (s Summary) StdDev() []float64 {
	if s.Covariance == nil {
		return nil
	}
	out := make([]float64, s.Covariance.Rows())
	for i := range out {
		v, _ := s.Covariance.At(i, i)
		out[i] = math.Sqrt(v)
	}

	return out
}

func encodeVector(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(b []byte, dims int) ([]float64, error) {
	if len(b) != dims*8 {
		return nil, fmt.Errorf("trace: blob of %d bytes for %d dims: %w", len(b), dims, ErrDimensionMismatch)
	}
	v := make([]float64, dims)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v, nil
}
