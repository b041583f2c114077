// Package clusters provides the fixed topic clusters that questions are filed
// under and the subcategories created within them on demand.
package clusters

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cluster is a top-level topic. Clusters are seeded by migration.
type Cluster struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	SortOrder   int       `json:"sort_order"`
}

// Subcategory is a named group of questions within a cluster.
type Subcategory struct {
	ID        uuid.UUID `json:"id"`
	ClusterID uuid.UUID `json:"cluster_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Domain errors for cluster operations.
var (
	ErrNotFound       = errors.New("cluster not found")
	ErrInvalidRequest = errors.New("invalid cluster request")
)

// MapHTTPStatus maps cluster domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Match finds the cluster whose name equals name, ignoring case and
// surrounding whitespace.
func Match(list []Cluster, name string) (Cluster, bool) {
	name = strings.TrimSpace(name)
	for _, c := range list {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Cluster{}, false
}

// Names returns the cluster names in list order.
func Names(list []Cluster) []string {
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.Name
	}
	return names
}
