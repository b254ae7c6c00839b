package types

// RosterMember is one participant on a team or company registration.
type RosterMember struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Roster is the denormalized member list stored on cart items and
// registrations. The first entry is treated as the lead participant.
type Roster []RosterMember

// Lead returns the first roster member, if any.
func (r Roster) Lead() (RosterMember, bool) {
	if len(r) == 0 {
		return RosterMember{}, false
	}
	return r[0], true
}
