package model

// Page is the envelope returned by response listing.
type Page struct {
	Data       []*Response `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"totalPages"`
}

// NewPage builds a page envelope. Data may be nil for an empty page.
func NewPage(data []*Response, total int64, page, limit int) *Page {
	if data == nil {
		data = []*Response{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Page{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
