package redislock

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/surf-report-service/internal/domain"
)

func TestLockKey(t *testing.T) {
	key := domain.ReportKey{Date: "2024-06-01", Location: "ocean-beach"}
	assert.Equal(t, "surf_report_run:2024-06-01|ocean-beach", lockKey(key.String()))
}
