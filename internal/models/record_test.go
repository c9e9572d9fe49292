package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKeepsUnknownFields(t *testing.T) {
	raw := []byte(`{"_id":"u1","name":"Ada","email":"ada@example.com","status":"active","avatar":"a.png","address":{"city":"Oslo"}}`)

	var user User
	require.NoError(t, json.Unmarshal(raw, &user))
	assert.Equal(t, "u1", user.RecordID())
	assert.Equal(t, "Ada", user.Name)
	assert.Contains(t, user.Extra, "avatar")
	assert.Contains(t, user.Extra, "address")
	assert.NotContains(t, user.Extra, "name")

	out, err := json.Marshal(user)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}

func TestRecordWithoutExtrasMarshalsPlainly(t *testing.T) {
	plan := SubscriptionPlan{ID: "p1", Name: "Monthly", Price: 9.5}
	out, err := json.Marshal(plan)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"p1","name":"Monthly","price":9.5}`, string(out))
}

func TestAdminProfileHasPermission(t *testing.T) {
	admin := AdminProfile{Role: RoleAdmin, Permissions: []string{"users", "bookings"}}
	assert.True(t, admin.HasPermission("users"))
	assert.False(t, admin.HasPermission("payments"))
	assert.True(t, admin.HasPermission(""))

	super := AdminProfile{Role: RoleSuperAdmin}
	assert.True(t, super.HasPermission("admins"))
}
