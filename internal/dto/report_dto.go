package dto

type SubmitReportRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Disposition string `json:"disposition"`
	Location    string `json:"location"`
	ImageURL    string `json:"image_url"`
}

type ModerateReportRequest struct {
	Reason string `json:"reason"`
}

type CreateClaimRequest struct {
	Justification string `json:"justification"`
	Contact       string `json:"contact"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}
