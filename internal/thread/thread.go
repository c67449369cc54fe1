package thread

const (
	directPrefix = "dm_"
	groupPrefix  = "group_"
)

// DirectID derives the canonical thread id for a pair of users. The pair is
// sorted so both sides compute the same id regardless of who initiates.
func DirectID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return directPrefix + a + "_" + b
}

// GroupID derives the thread id for a group conversation.
func GroupID(groupID string) string {
	return groupPrefix + groupID
}
