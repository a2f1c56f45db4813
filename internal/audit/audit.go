package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Actions and resource types recorded by the ingestor.
const (
	ActionRejectionExport = "rejections.export"
	ResourceVessel        = "vessel"
)

// Entry is one row of the audit_logs table: who touched which vessel data, and how.
type Entry struct {
	ID            string
	Actor         string
	Role          string
	Action        string
	ResourceType  string
	ResourceID    string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger persists audit entries. Handlers treat a failed write as non-fatal.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// NewID returns an "audit-" prefixed UUID.
func NewID() string {
	return "audit-" + uuid.NewString()
}

// DigestJSON fingerprints entry metadata so later tampering is detectable.
// Empty metadata has an empty digest.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
