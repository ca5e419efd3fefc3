package schema

import "fmt"

// Rowset is one user's complete data in row form: what a full remote fetch
// returns and what a full flatten of the in-memory model produces.
type Rowset struct {
	Lists      []ListRow      `json:"lists"`
	Categories []CategoryRow  `json:"categories"`
	Tasks      []TaskRow      `json:"tasks"`
	Preference *PreferenceRow `json:"preference,omitempty"`
}

// Empty reports whether the rowset holds no list, category, or task rows.
// A lone preference record does not make a rowset non-empty: the hydration
// migration decision looks only at entity rows.
func (rs Rowset) Empty() bool {
	return len(rs.Lists) == 0 && len(rs.Categories) == 0 && len(rs.Tasks) == 0
}

// String summarizes the rowset for logs.
func (rs Rowset) String() string {
	s := fmt.Sprintf("%d lists, %d categories, %d tasks", len(rs.Lists), len(rs.Categories), len(rs.Tasks))
	if rs.Preference != nil {
		s += ", preference"
	}
	return s
}
