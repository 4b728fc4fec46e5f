package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/repository"
)

// ClickHouseAuditRepository implements AuditPersistence using ClickHouse.
// Audit records are append-only; nothing is ever updated or deleted.
type ClickHouseAuditRepository struct {
	conn driver.Conn
}

type ClickHouseConfig struct {
	Addr     string
	Username string
	Password string
	Timeout  int
}

func NewClickHouseAuditRepository(cfg ClickHouseConfig) (*ClickHouseAuditRepository, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: time.Duration(cfg.Timeout) * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if err := createTablesIfNotExist(conn); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &ClickHouseAuditRepository{conn: conn}, nil
}

var _ repository.AuditPersistence = (*ClickHouseAuditRepository)(nil)

func createTablesIfNotExist(conn driver.Conn) error {
	return conn.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS audit_logs (
			status             String,
			risk_score         Float64,
			recommended_action String,
			received_at        DateTime
		) ENGINE = MergeTree()
		ORDER BY received_at
	`)
}

// SaveAuditRecord appends one immutable audit record.
func (r *ClickHouseAuditRepository) SaveAuditRecord(ctx context.Context, record *model.AuditRecord) error {
	query := `
		INSERT INTO audit_logs (
			status, risk_score, recommended_action, received_at
		) VALUES (
			?, ?, ?, ?
		)
	`

	return r.conn.AsyncInsert(ctx, query, false,
		record.Status,
		record.RiskScore,
		record.RecommendedAction,
		record.ReceivedAt,
	)
}

func (r *ClickHouseAuditRepository) Close() error {
	return r.conn.Close()
}
