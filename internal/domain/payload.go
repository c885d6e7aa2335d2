package domain

// DispatchPayload is the cursor carried by a dispatch action.
// Zero values are replaced with defaults by the batch tool.
type DispatchPayload struct {
	LastID int64 `json:"last_id"`
	Chunk  int   `json:"chunk"`
}

// WorkerPayload carries one page of user ids found by a dispatch.
type WorkerPayload struct {
	UserIDs []int64 `json:"user_ids"`
}
