// internal/testutil/http.go
package testutil

import (
	"github.com/dalemusser/linguahub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StudentUser returns a session user with student role in the given org.
func StudentUser(id, orgID primitive.ObjectID) *auth.SessionUser {
	return &auth.SessionUser{
		ID:             id.Hex(),
		Name:           "Test Student",
		Email:          "student@test.com",
		Role:           "student",
		OrganizationID: orgID.Hex(),
	}
}

// AdminUser returns a session user with admin role.
func AdminUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Admin",
		Email: "admin@test.com",
		Role:  "admin",
	}
}
