package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/app/services"
)

type stubManagementService struct {
	services.ManagementService
	adminID int64
	userID  int64
	req     *dto.UpdateMemberRequest
}

func (s *stubManagementService) UpdateMember(_ context.Context, adminID, userID int64, req *dto.UpdateMemberRequest) error {
	s.adminID, s.userID, s.req = adminID, userID, req
	return nil
}

func managementRouter(m *stubManagementService) *gin.Engine {
	c := NewManagementController(m, nil, zerolog.Nop())
	r := gin.New()
	r.Use(asUser(1))
	r.PUT("/users/:id/update/", c.UpdateMember)
	return r
}

func TestOptionalID(t *testing.T) {
	id := func(v int64) *int64 { return &v }

	tests := []struct {
		name    string
		body    string
		want    dto.OptionalID
		wantErr bool
	}{
		{"absent", `{}`, dto.OptionalID{}, false},
		{"null clears", `{"bus":null}`, dto.OptionalID{Set: true}, false},
		{"empty string clears", `{"bus":""}`, dto.OptionalID{Set: true}, false},
		{"number", `{"bus":7}`, dto.OptionalID{Set: true, Value: id(7)}, false},
		{"numeric string", `{"bus":" 12 "}`, dto.OptionalID{Set: true, Value: id(12)}, false},
		{"garbage string", `{"bus":"seven"}`, dto.OptionalID{}, true},
		{"object", `{"bus":{"id":1}}`, dto.OptionalID{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw map[string]json.RawMessage
			require.NoError(t, json.Unmarshal([]byte(tt.body), &raw))

			got, err := optionalID(raw, "bus")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUpdateMemberPassesLinks(t *testing.T) {
	m := &stubManagementService{}
	r := managementRouter(m)

	w := doJSON(t, r, http.MethodPut, "/users/9/update/", `{"email":"new@school.test","bus":null,"class_in_charge":"4"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), services.MsgMemberUpdated)

	require.NotNil(t, m.req)
	assert.Equal(t, int64(1), m.adminID)
	assert.Equal(t, int64(9), m.userID)
	require.NotNil(t, m.req.Email)
	assert.Equal(t, "new@school.test", *m.req.Email)
	assert.True(t, m.req.BusID.Set)
	assert.Nil(t, m.req.BusID.Value)
	require.True(t, m.req.ClassInChargeID.Set)
	assert.Equal(t, int64(4), *m.req.ClassInChargeID.Value)
}

func TestUpdateMemberRejectsBadInput(t *testing.T) {
	m := &stubManagementService{}
	r := managementRouter(m)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPut, "/users/abc/update/", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPut, "/users/9/update/", `{"email":"not-an-email"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPut, "/users/9/update/", `{"bus":"x"}`).Code)
	assert.Nil(t, m.req)
}
