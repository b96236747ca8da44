package activity

// ListOptions provides filtering options for listing feed entries.
type ListOptions struct {
	SessionID  *string
	IncidentID *string
	Kind       *Kind
	Limit      int
	Offset     int
}
