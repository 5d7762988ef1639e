package domain

import "time"

// Caller is the authenticated identity presented with each request, as
// established by the external authentication collaborator. ChamberMember
// reflects the role claim only; live eligibility is checked against the
// voters table per call.
type Caller struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ChamberMember bool   `json:"chamber_member"`
}

// Voter is a member of the privileged decision-making role. Eligibility is
// evaluated live against the Active flag at the time of each check; the ballot
// table references voters only for the duplicate-cast invariant.
type Voter struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}
