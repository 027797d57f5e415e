package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zewdu444/takethestage/internal/service"
	appErrors "github.com/zewdu444/takethestage/pkg/errors"
	"github.com/zewdu444/takethestage/pkg/response"
)

type fakeAllocationSrv struct {
	result *service.AllocationResult
	err    error
	lastID string
}

func (f *fakeAllocationSrv) Allocate(_ context.Context, enrolleeID string) (*service.AllocationResult, error) {
	f.lastID = enrolleeID
	return f.result, f.err
}

func (f *fakeAllocationSrv) Status(_ context.Context, enrolleeID string) (*service.AllocationResult, error) {
	f.lastID = enrolleeID
	return f.result, f.err
}

func allocate(t *testing.T, srv *fakeAllocationSrv) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewAllocationHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/enrollees/enr-1/allocation", nil)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.Allocate(c)
	return rec
}

func TestAllocationHandlerAssigned(t *testing.T) {
	srv := &fakeAllocationSrv{result: &service.AllocationResult{
		Assigned:      true,
		SlotName:      "Class 1",
		PrimarySlotID: "slot-1",
		Reason:        service.OutcomeAssigned,
	}}

	rec := allocate(t, srv)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "enr-1", srv.lastID)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, true, data["assigned"])
	assert.Equal(t, "Class 1", data["slot_name"])
}

func TestAllocationHandlerNoCapacity(t *testing.T) {
	srv := &fakeAllocationSrv{result: &service.AllocationResult{
		Assigned: false,
		Reason:   service.OutcomeNoCapacity,
	}}

	rec := allocate(t, srv)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, false, data["assigned"])
	assert.Equal(t, service.OutcomeNoCapacity, data["reason"])
}

func TestAllocationHandlerCapacityRace(t *testing.T) {
	srv := &fakeAllocationSrv{result: &service.AllocationResult{
		Assigned: false,
		Reason:   service.OutcomeCapacityRace,
	}}

	rec := allocate(t, srv)
	assert.Equal(t, appErrors.ErrCapacityRace.Status, rec.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, appErrors.ErrCapacityRace.Code, data["reason"])
}

func TestAllocationHandlerUnpaid(t *testing.T) {
	srv := &fakeAllocationSrv{err: appErrors.Clone(appErrors.ErrPaymentUnpaid, "payment pending")}

	rec := allocate(t, srv)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrPaymentUnpaid.Code, envelope.Error.Code)
}

func TestAllocationHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAllocationSrv{result: &service.AllocationResult{Assigned: false}}
	handler := NewAllocationHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/enrollees/enr-1/allocation", nil)
	c.Params = gin.Params{{Key: "id", Value: "enr-1"}}

	handler.Status(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "enr-1", srv.lastID)
}
