package model

const (
	RoleOrgAdmin = "org_admin"
	RoleManager  = "manager"
	RoleMember   = "member"
)

// Caller is the authenticated identity supplied by the auth collaborator.
// The core never authenticates; it only consumes this.
type Caller struct {
	ID              string `json:"id"`
	OrganizationID  string `json:"organization_id"`
	Role            string `json:"role"`
	DailyTokenLimit int    `json:"daily_token_limit"`
}

// CanManageDocuments reports whether the caller may upload or process
// documents within their organization.
func (c Caller) CanManageDocuments() bool {
	return c.Role == RoleOrgAdmin || c.Role == RoleManager
}
