package model

// Category is one entry in the listing taxonomy. Items carry any number of
// categories; the set grows as sellers tag their listings.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
