// Package storage owns the persisted streak state and its SQLite backing.
//
// The state is a flat key-value namespace matching the extension's storage
// keys. All other packages read and mutate it through the Store interface;
// nothing else holds a long-lived reference to persisted data.
package storage

// Storage keys of the flat state namespace. These are wire names shared with
// the extension side and must not be renamed.
const (
	KeyLastVisitDate   = "lastVisitDate"
	KeyCustomSites     = "customSites"
	KeyVisitHistory    = "visitHistory"
	KeyAccessToken     = "accessToken"
	KeyRefreshToken    = "refreshToken"
	KeyUserID          = "userId"
	KeyUserEmail       = "userEmail"
	KeySupabaseURL     = "supabaseUrl"
	KeySupabaseAnonKey = "supabaseAnonKey"
)

// Session is the externally issued auth session. It is owned by the backend
// collaborator; the core only reads, refreshes and clears it.
type Session struct {
	AccessToken     string
	RefreshToken    string
	UserID          string
	UserEmail       string
	SupabaseURL     string
	SupabaseAnonKey string
}

// Complete reports whether the session carries everything needed to submit
// a detection event.
func (s Session) Complete() bool {
	return s.AccessToken != "" && s.SupabaseURL != "" && s.SupabaseAnonKey != "" && s.UserID != ""
}

// CanRefresh reports whether a token refresh can be attempted.
func (s Session) CanRefresh() bool {
	return s.RefreshToken != "" && s.SupabaseURL != "" && s.SupabaseAnonKey != ""
}

// PersistedState is the single persisted record of the worker.
type PersistedState struct {
	// LastVisitDate is the ISO calendar date of the most recent detection,
	// empty if none was ever recorded.
	LastVisitDate string
	// VisitHistory holds every calendar date with a detection, deduplicated.
	VisitHistory []string
	// CustomSites holds normalized hostnames in insertion order, no
	// duplicates.
	CustomSites []string
	Session     Session
}

// Clone returns a deep copy of the state. Nil and empty lists stay
// distinguishable, matching what a Load returns.
func (st PersistedState) Clone() PersistedState {
	out := st
	out.VisitHistory = cloneList(st.VisitHistory)
	out.CustomSites = cloneList(st.CustomSites)
	return out
}

func cloneList(list []string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// HasVisit reports whether date is already present in the visit history.
func (st PersistedState) HasVisit(date string) bool {
	for _, d := range st.VisitHistory {
		if d == date {
			return true
		}
	}
	return false
}

// AddVisit appends date to the visit history if absent. Returns true if the
// history changed.
func (st *PersistedState) AddVisit(date string) bool {
	if st.HasVisit(date) {
		return false
	}
	st.VisitHistory = append(st.VisitHistory, date)
	return true
}

// HasCustomSite reports whether the normalized site is already listed.
func (st PersistedState) HasCustomSite(site string) bool {
	for _, s := range st.CustomSites {
		if s == site {
			return true
		}
	}
	return false
}

// AddCustomSite appends a normalized site if absent. Returns true if the
// list changed.
func (st *PersistedState) AddCustomSite(site string) bool {
	if site == "" || st.HasCustomSite(site) {
		return false
	}
	st.CustomSites = append(st.CustomSites, site)
	return true
}

// RemoveCustomSite removes a normalized site. Returns true if the list
// changed.
func (st *PersistedState) RemoveCustomSite(site string) bool {
	kept := st.CustomSites[:0]
	removed := false
	for _, s := range st.CustomSites {
		if s == site {
			removed = true
			continue
		}
		kept = append(kept, s)
	}
	st.CustomSites = kept
	return removed
}

// ClearSession drops the stored auth session.
func (st *PersistedState) ClearSession() {
	st.Session = Session{}
}
