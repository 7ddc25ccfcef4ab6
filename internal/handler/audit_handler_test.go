package handler

import (
	"errors"
	"net/http"
	"testing"

	"rentalyard/internal/middleware"
	"rentalyard/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAuditHandler_GetAuditLogs(t *testing.T) {
	audits := new(MockAuditService)
	r := newRouter(NewAuditHandler(audits, new(MockCAAuditService), testAuth()))
	audits.On("GetAuditLogs", mock.Anything, service.AuditLogFilter{Action: "RETURN_EQUIPMENT"}, 1, 20).
		Return([]service.AuditLogResponse{{Action: "RETURN_EQUIPMENT"}}, int64(1), nil)

	w, res := do(t, r, http.MethodGet, "/api/audit-logs?action=RETURN_EQUIPMENT", bearer(t, "a", middleware.RoleAdmin), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := res.Data.(map[string]interface{})
	assert.EqualValues(t, 1, data["total"])
	assert.Len(t, data["logs"], 1)
}

func TestAuditHandler_GetAuditLogsFailure(t *testing.T) {
	audits := new(MockAuditService)
	r := newRouter(NewAuditHandler(audits, new(MockCAAuditService), testAuth()))
	audits.On("GetAuditLogs", mock.Anything, mock.Anything, 1, 20).
		Return([]service.AuditLogResponse(nil), int64(0), errors.New("db down"))

	w, res := do(t, r, http.MethodGet, "/api/audit-logs", bearer(t, "a", middleware.RoleAdmin), nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, res.Error, "Failed to retrieve audit logs")
}

func TestAuditHandler_CAConsistency(t *testing.T) {
	ca := new(MockCAAuditService)
	r := newRouter(NewAuditHandler(new(MockAuditService), ca, testAuth()))
	ca.On("Audit", mock.Anything).Return(service.CAAuditReport{Checked: 3, DryRun: true}, nil)

	w, res := do(t, r, http.MethodGet, "/api/audit-logs/ca-consistency", bearer(t, "m", middleware.RoleManager), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, res.Data.(map[string]interface{})["checked"])
	ca.AssertNotCalled(t, "Backfill", mock.Anything, mock.Anything, mock.Anything)
}
