package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
)

func TestLogTransitionWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithRequestID(context.Background(), "req-1")
	actor := domain.Actor{UserID: "landlord-1", Role: domain.RoleLandlord}
	al.LogTransition(ctx, actor, "rr-1", domain.RentRequestPending, domain.RentRequestAccepted, nil)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["msg"])
	assert.Equal(t, "transition", line["action"])
	assert.Equal(t, "rr-1", line["resource_id"])
	assert.Equal(t, "success", line["status"])
	assert.Equal(t, "pending -> accepted", line["details"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "landlord", line["role"])
}

func TestLogDeletionRecordsErrorKind(t *testing.T) {
	var buf bytes.Buffer
	al := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogDeletion(context.Background(), domain.Actor{UserID: "u"}, "rent_request", "rr-2", domain.InvalidState("accepted"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, string(domain.KindInvalidState), line["status"])
	assert.Equal(t, "", line["request_id"])
}
