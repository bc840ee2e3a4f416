package model

type Group struct {
	ID        int64         `json:"id"`
	Name      string        `json:"groupName"`
	CreatedAt string        `json:"createdAt,omitempty"`
	CreatedBy *User         `json:"createdBy,omitempty"`
	Members   []GroupMember `json:"members"`
}

type GroupMember struct {
	ID       int64  `json:"id"`
	User     *User  `json:"user,omitempty"`
	JoinedAt string `json:"joinedAt,omitempty"`
}

// HasMember reports whether the snapshot lists userID as a member.
func (g *Group) HasMember(userID int64) bool {
	for _, m := range g.Members {
		if m.User != nil && m.User.ID == userID {
			return true
		}
	}
	return false
}

// PendingBatch is the queued, not yet committed, member emails for a group.
type PendingBatch struct {
	GroupID int64
	Targets []string
}
