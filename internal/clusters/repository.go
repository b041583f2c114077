package clusters

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/repository"
)

// System defines the public contract for clusters and subcategories.
type System interface {
	Handler() *Handler
	List(ctx context.Context) ([]Cluster, error)
	Subcategories(ctx context.Context, clusterID uuid.UUID) ([]Subcategory, error)

	// EnsureSubcategory returns the named subcategory of the cluster,
	// creating it if needed. Names are trimmed; an empty name returns nil.
	EnsureSubcategory(ctx context.Context, clusterID uuid.UUID, name string) (*Subcategory, error)
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates the cluster repository.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "clusters"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) List(ctx context.Context) ([]Cluster, error) {
	list, err := repository.QueryMany(
		ctx, repository.Using(ctx, r.db),
		`SELECT id, name, description, icon, color, sort_order
		FROM clusters
		ORDER BY sort_order, name`,
		nil,
		scanCluster,
	)
	if err != nil {
		return nil, fmt.Errorf("query clusters: %w", err)
	}
	return list, nil
}

func (r *repo) Subcategories(ctx context.Context, clusterID uuid.UUID) ([]Subcategory, error) {
	list, err := repository.QueryMany(
		ctx, repository.Using(ctx, r.db),
		`SELECT id, cluster_id, name, created_at
		FROM subcategories
		WHERE cluster_id = $1
		ORDER BY name`,
		[]any{clusterID},
		scanSubcategory,
	)
	if err != nil {
		return nil, fmt.Errorf("query subcategories: %w", err)
	}
	return list, nil
}

func (r *repo) EnsureSubcategory(ctx context.Context, clusterID uuid.UUID, name string) (*Subcategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	s, err := repository.QueryOne(
		ctx, repository.Using(ctx, r.db),
		`INSERT INTO subcategories(id, cluster_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (cluster_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, cluster_id, name, created_at`,
		[]any{uuid.New(), clusterID, name},
		scanSubcategory,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure subcategory: %w", err)
	}
	return &s, nil
}

func scanCluster(s repository.Scanner) (Cluster, error) {
	var c Cluster
	err := s.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.Color, &c.SortOrder)
	return c, err
}

func scanSubcategory(s repository.Scanner) (Subcategory, error) {
	var sc Subcategory
	err := s.Scan(&sc.ID, &sc.ClusterID, &sc.Name, &sc.CreatedAt)
	return sc, err
}
