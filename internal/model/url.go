package model

// URLMapping is the persisted association between a short code and its target.
// The code is stored alongside the target so a record is self-describing.
type URLMapping struct {
	Code      string `json:"code"`
	TargetURL string `json:"target_url"`
}

// ShortenRequest is the body of the JSON shorten API.
type ShortenRequest struct {
	URL string `json:"url"`
}

// ShortenResponse is returned by the JSON shorten API.
type ShortenResponse struct {
	Result string `json:"result"`
}
