// Package store persists findings and serves the correlation engine's
// candidate queries. The ArangoDB adapter is the production backend; the
// in-memory implementation backs tests and store-less runs.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/logging"
)

const findingsCollection = "findings"

// ArangoStore implements domain.FindingRepository on an ArangoDB database
type ArangoStore struct {
	db     arangodb.Database
	logger *zap.Logger
}

// NewArangoStore connects to ArangoDB with exponential backoff and ensures
// the findings collection exists
func NewArangoStore(ctx context.Context, cfg *config.StoreConfig) (*ArangoStore, error) {
	logger := logging.Logger()

	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
	conn := connection.NewHttpConnection(connection.HttpConfiguration{
		Authentication: connection.NewBasicAuth(cfg.User, cfg.Password),
		Endpoint:       endpoint,
		ContentType:    connection.ApplicationJSON,
	})
	client := arangodb.NewClient(conn)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 15 * time.Second
	bo.MaxElapsedTime = time.Duration(cfg.TimeoutSeconds) * time.Second

	err := backoff.RetryNotify(func() error {
		_, err := client.Version(ctx)
		return err
	}, bo, func(err error, _ time.Duration) {
		logger.Warn("retrying ArangoDB connection", zap.Error(err))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ArangoDB at %s: %w", cfg.URL, err)
	}

	db, err := ensureDatabase(ctx, client, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := ensureCollection(ctx, db, findingsCollection); err != nil {
		return nil, err
	}

	return &ArangoStore{db: db, logger: logger}, nil
}

func ensureDatabase(ctx context.Context, client arangodb.Client, name string) (arangodb.Database, error) {
	exists := false
	dbs, _ := client.Databases(ctx)
	for _, info := range dbs {
		if info.Name() == name {
			exists = true
			break
		}
	}

	if exists {
		var options arangodb.GetDatabaseOptions
		db, err := client.GetDatabase(ctx, name, &options)
		if err != nil {
			return nil, fmt.Errorf("failed to open database %s: %w", name, err)
		}
		return db, nil
	}
	db, err := client.CreateDatabase(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return db, nil
}

func ensureCollection(ctx context.Context, db arangodb.Database, name string) error {
	exists, _ := db.CollectionExists(ctx, name)
	if exists {
		return nil
	}
	if _, err := db.CreateCollectionV2(ctx, name, nil); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return nil
}

// SaveFinding appends one finding. The UPSERT keyed by the deterministic
// finding id makes retried writes idempotent: a record is never duplicated,
// only its update timestamp moves.
func (s *ArangoStore) SaveFinding(ctx context.Context, finding *domain.StoredFinding) error {
	query := `
		UPSERT { _key: @key }
		INSERT @doc
		UPDATE { updated_at: @now }
		IN findings
	`
	bindVars := map[string]interface{}{
		"key": finding.ID,
		"doc": finding,
		"now": time.Now().UTC().Format(time.RFC3339),
	}

	_, err := s.db.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return fmt.Errorf("failed to persist finding %s: %w", finding.ID, err)
	}
	return nil
}

// QueryCandidates runs the correlation candidate query. Path, severity, and
// time-range filtering happen in AQL so result sets stay bounded.
func (s *ArangoStore) QueryCandidates(ctx context.Context, q domain.CandidateQuery) ([]*domain.StoredFinding, error) {
	windowStart := q.AlertTime.AddDate(0, 0, -q.LookbackDays)

	statuses := make([]string, len(q.AllowedStatuses))
	for i, st := range q.AllowedStatuses {
		statuses[i] = string(st)
	}

	query := `
		FOR f IN findings
			FILTER f.file_path IN @paths
			FILTER f.severity_rank >= @minRank
			FILTER f.status IN @statuses
			FILTER f.created_at <= @alertTime
			FILTER f.created_at >= @windowStart
			SORT f.severity_rank DESC, f.created_at DESC
			RETURN f
	`
	bindVars := map[string]interface{}{
		"paths":       q.FilePaths,
		"minRank":     int(q.MinSeverity),
		"statuses":    statuses,
		"alertTime":   q.AlertTime.UTC(),
		"windowStart": windowStart.UTC(),
	}

	cursor, err := s.db.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, fmt.Errorf("candidate query failed: %w", err)
	}
	defer cursor.Close()

	var results []*domain.StoredFinding
	for cursor.HasMore() {
		var f domain.StoredFinding
		if _, err := cursor.ReadDocument(ctx, &f); err != nil {
			s.logger.Warn("skipping unreadable finding document", zap.Error(err))
			continue
		}
		results = append(results, &f)
	}
	return results, nil
}
