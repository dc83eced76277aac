package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jguan/model-catalog/pkg/unit/benchmark"
)

// SQLiteBenchmarkStore implements benchmark.BenchmarkStore. Unreported
// metrics are stored as NULL so AVG and MAX skip them.
type SQLiteBenchmarkStore struct {
	db *sql.DB
}

func NewSQLiteBenchmarkStore(db *sql.DB) (*SQLiteBenchmarkStore, error) {
	s := &SQLiteBenchmarkStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteBenchmarkStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS benchmark_results (
		id TEXT PRIMARY KEY,
		model_version_id TEXT NOT NULL,
		workload_type TEXT NOT NULL,
		batch_size INTEGER NOT NULL DEFAULT 1,
		sequence_length INTEGER NOT NULL DEFAULT 0,
		gpu_type TEXT NOT NULL DEFAULT '',
		framework TEXT NOT NULL DEFAULT '',
		ttft_p50_ms REAL,
		ttft_p90_ms REAL,
		ttft_p99_ms REAL,
		tpot_p50_ms REAL,
		tpot_p90_ms REAL,
		tpot_p99_ms REAL,
		throughput_tokens_sec REAL,
		requests_per_sec REAL,
		accuracy_score REAL,
		gpu_utilization_pct REAL,
		memory_used_gb REAL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_benchmarks_version ON benchmark_results(model_version_id);
	CREATE INDEX IF NOT EXISTS idx_benchmarks_workload ON benchmark_results(workload_type);
	CREATE INDEX IF NOT EXISTS idx_benchmarks_created ON benchmark_results(created_at);
	`
	_, err := s.db.Exec(query)
	return err
}

const resultColumns = `id, model_version_id, workload_type, batch_size, sequence_length, gpu_type, framework,
	ttft_p50_ms, ttft_p90_ms, ttft_p99_ms, tpot_p50_ms, tpot_p90_ms, tpot_p99_ms,
	throughput_tokens_sec, requests_per_sec, accuracy_score, gpu_utilization_pct, memory_used_gb, created_at`

func (s *SQLiteBenchmarkStore) Record(ctx context.Context, r *benchmark.Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO benchmark_results (`+resultColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.ModelVersionID, r.WorkloadType, r.BatchSize, r.SequenceLength, r.GPUType, r.Framework,
		nullable(r.TTFTP50Ms), nullable(r.TTFTP90Ms), nullable(r.TTFTP99Ms),
		nullable(r.TPOTP50Ms), nullable(r.TPOTP90Ms), nullable(r.TPOTP99Ms),
		nullable(r.ThroughputTokensSec), nullable(r.RequestsPerSec), nullable(r.AccuracyScore),
		nullable(r.GPUUtilizationPct), nullable(r.MemoryUsedGB), r.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return benchmark.ErrBenchmarkExists.WithDetails("id", r.ID)
		}
		return fmt.Errorf("insert benchmark: %w", err)
	}
	return nil
}

func (s *SQLiteBenchmarkStore) Get(ctx context.Context, id string) (*benchmark.Result, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM benchmark_results WHERE id = ?`, id)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, benchmark.ErrBenchmarkNotFound.WithDetails("id", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan benchmark: %w", err)
	}
	return r, nil
}

func (s *SQLiteBenchmarkStore) List(ctx context.Context, filter benchmark.Filter) ([]benchmark.Result, int, error) {
	clause, args := filterClause(filter.ModelVersionID, filter.WorkloadType)
	if filter.GPUType != "" {
		clause += " AND gpu_type = ?"
		args = append(args, filter.GPUType)
	}
	if filter.MaxTTFTP90Ms != nil {
		clause += " AND ttft_p90_ms IS NOT NULL AND ttft_p90_ms <= ?"
		args = append(args, *filter.MaxTTFTP90Ms)
	}
	if filter.MinThroughput != nil {
		clause += " AND throughput_tokens_sec IS NOT NULL AND throughput_tokens_sec >= ?"
		args = append(args, *filter.MinThroughput)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM benchmark_results WHERE "+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count benchmarks: %w", err)
	}

	limit, offset := pageArgs(filter.Limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM benchmark_results WHERE `+clause+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query benchmarks: %w", err)
	}
	defer rows.Close()

	out := make([]benchmark.Result, 0)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan benchmark: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *SQLiteBenchmarkStore) AggregatedStats(ctx context.Context, versionID, workloadType string) (*benchmark.Stats, error) {
	clause, args := filterClause(versionID, workloadType)

	var (
		stats                          benchmark.Stats
		ttft50, ttft90, tpot50, tpot90 sql.NullFloat64
		avgTput, maxTput, accuracy     sql.NullFloat64
		gpuUtil, memory                sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			AVG(ttft_p50_ms), AVG(ttft_p90_ms), AVG(tpot_p50_ms), AVG(tpot_p90_ms),
			AVG(throughput_tokens_sec), MAX(throughput_tokens_sec), AVG(accuracy_score),
			AVG(gpu_utilization_pct), AVG(memory_used_gb)
		FROM benchmark_results WHERE `+clause, args...).Scan(
		&stats.TotalBenchmarks,
		&ttft50, &ttft90, &tpot50, &tpot90,
		&avgTput, &maxTput, &accuracy,
		&gpuUtil, &memory,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate benchmarks: %w", err)
	}

	stats.AvgTTFTP50Ms = ptrFromNull(ttft50)
	stats.AvgTTFTP90Ms = ptrFromNull(ttft90)
	stats.AvgTPOTP50Ms = ptrFromNull(tpot50)
	stats.AvgTPOTP90Ms = ptrFromNull(tpot90)
	stats.AvgThroughput = ptrFromNull(avgTput)
	stats.MaxThroughput = ptrFromNull(maxTput)
	stats.AvgAccuracy = ptrFromNull(accuracy)
	stats.AvgGPUUtilizationPct = ptrFromNull(gpuUtil)
	stats.AvgMemoryUsedGB = ptrFromNull(memory)
	return &stats, nil
}

func (s *SQLiteBenchmarkStore) Close() error {
	return s.db.Close()
}

func filterClause(versionID, workloadType string) (string, []any) {
	where := []string{"1=1"}
	args := []any{}
	if versionID != "" {
		where = append(where, "model_version_id = ?")
		args = append(args, versionID)
	}
	if workloadType != "" {
		where = append(where, "workload_type = ?")
		args = append(args, workloadType)
	}
	return strings.Join(where, " AND "), args
}

func scanResult(row rowScanner) (*benchmark.Result, error) {
	r := &benchmark.Result{}
	var (
		ttft50, ttft90, ttft99 sql.NullFloat64
		tpot50, tpot90, tpot99 sql.NullFloat64
		tput, rps, accuracy    sql.NullFloat64
		gpuUtil, memory        sql.NullFloat64
	)
	err := row.Scan(
		&r.ID, &r.ModelVersionID, &r.WorkloadType, &r.BatchSize, &r.SequenceLength, &r.GPUType, &r.Framework,
		&ttft50, &ttft90, &ttft99, &tpot50, &tpot90, &tpot99,
		&tput, &rps, &accuracy, &gpuUtil, &memory, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.TTFTP50Ms, r.TTFTP90Ms, r.TTFTP99Ms = ptrFromNull(ttft50), ptrFromNull(ttft90), ptrFromNull(ttft99)
	r.TPOTP50Ms, r.TPOTP90Ms, r.TPOTP99Ms = ptrFromNull(tpot50), ptrFromNull(tpot90), ptrFromNull(tpot99)
	r.ThroughputTokensSec = ptrFromNull(tput)
	r.RequestsPerSec = ptrFromNull(rps)
	r.AccuracyScore = ptrFromNull(accuracy)
	r.GPUUtilizationPct = ptrFromNull(gpuUtil)
	r.MemoryUsedGB = ptrFromNull(memory)
	return r, nil
}

var _ benchmark.BenchmarkStore = (*SQLiteBenchmarkStore)(nil)
