package model

// ChosenPlace is written by the place selection page under the "chosenPlace" key.
type ChosenPlace struct {
	Name    string `json:"name,omitempty"`
	Country string `json:"country,omitempty"`
}

// ChosenDate is written by the date selection page under the "chosenDate" key.
type ChosenDate struct {
	DisplayUS string `json:"displayUS,omitempty"`
}

// Storage keys shared with the selection pages.
const (
	ChosenPlaceKey = "chosenPlace"
	ChosenDateKey  = "chosenDate"
)
