package model

type StallResponse struct {
	Id     int64  `json:"id"`
	Number string `json:"number"`
	Status string `json:"status"`
	Price  int64  `json:"price"`
}

type ListStallsResponse struct {
	ExhibitionId   int64           `json:"exhibition_id"`
	AvailableCount int64           `json:"available_count"`
	Stalls         []StallResponse `json:"stalls"`
}

type CounterStatusResponse struct {
	ExhibitionId int64 `json:"exhibition_id"`
	LastIssued   int64 `json:"last_issued"`
}
