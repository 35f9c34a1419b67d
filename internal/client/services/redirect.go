package services

import (
	"fmt"

	"github.com/dmitrijs2005/miarbol/internal/client/models"
)

// GetRedirectPath returns the home location of a user acting under role.
func GetRedirectPath(role models.Role, userID models.ID) string {
	switch role {
	case models.RoleAdmin:
		return fmt.Sprintf("/admin/%s/dashboard", userID)
	case models.RoleCompany, models.RoleEmpresa:
		return fmt.Sprintf("/empresa/%s/dashboard", userID)
	case models.RolePlantador:
		return fmt.Sprintf("/plantador/%s/dashboard", userID)
	case models.RoleVivero:
		return fmt.Sprintf("/vivero/%s/dashboard", userID)
	case models.RoleUser:
		return fmt.Sprintf("/usuario/%s/feed", userID)
	default:
		return "/"
	}
}
