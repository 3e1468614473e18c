package lookup

// BookRecord is the shaped result of a book search.
type BookRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AuthorIDs   []int  `json:"authors"`
}

// AuthorRecord holds the name parts returned for one author ID.
type AuthorRecord struct {
	FirstName     string `json:"firstName"`
	MiddleInitial string `json:"middleInitial,omitempty"`
	LastName      string `json:"lastName"`
}

// DisplayName joins the name parts with single spaces, leaving out an absent
// middle initial.
func (a AuthorRecord) DisplayName() string {
	if a.MiddleInitial == "" {
		return a.FirstName + " " + a.LastName
	}
	return a.FirstName + " " + a.MiddleInitial + " " + a.LastName
}

type searchRequest struct {
	Title string `json:"title"`
}
