package ipc

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and queue status information.
type StatusResponse struct {
	Running      bool              `json:"running"`
	Online       bool              `json:"online"`
	Syncing      bool              `json:"syncing"`
	PID          int               `json:"pid"`
	QueueDBPath  string            `json:"queue_db_path"`
	LockPath     string            `json:"lock_path"`
	QueueStats   map[string]int    `json:"queue_stats"`
	Counters     map[string]uint64 `json:"counters"`
	LastPassAt   string            `json:"last_pass_at"`
	LastPassSecs float64           `json:"last_pass_secs"`
}

// SyncNowRequest triggers a manual sync pass.
type SyncNowRequest struct{}

// SyncNowResponse reports the outcome of a manual sync pass.
type SyncNowResponse struct {
	Ran             bool   `json:"ran"`
	AttemptsSynced  int    `json:"attempts_synced"`
	AudioSynced     int    `json:"audio_synced"`
	AttemptsFailed  int    `json:"attempts_failed"`
	AudioFailed     int    `json:"audio_failed"`
	AttemptsSkipped int    `json:"attempts_skipped"`
	Message         string `json:"message"`
}

// AttemptItem is the queue DTO for a practice attempt.
type AttemptItem struct {
	ID         int64  `json:"id"`
	ChildID    string `json:"child_id"`
	ListID     string `json:"list_id"`
	WordID     string `json:"word_id"`
	Mode       string `json:"mode"`
	Correct    bool   `json:"correct"`
	State      string `json:"state"`
	RetryCount int    `json:"retry_count"`
	LastError  string `json:"last_error"`
	Failed     bool   `json:"failed"`
	CreatedAt  string `json:"created_at"`
}

// AudioItem is the queue DTO for a recorded clip.
type AudioItem struct {
	ID         int64  `json:"id"`
	DestPath   string `json:"dest_path"`
	State      string `json:"state"`
	RetryCount int    `json:"retry_count"`
	LastError  string `json:"last_error"`
	Failed     bool   `json:"failed"`
	CreatedAt  string `json:"created_at"`
}

// QueueListRequest fetches queue contents.
type QueueListRequest struct{}

// QueueListResponse contains queue entries grouped by kind.
type QueueListResponse struct {
	Attempts []AttemptItem `json:"attempts"`
	Audio    []AudioItem   `json:"audio"`
}

// QueueRetryRequest restores failed items for another round of retries.
// Empty IDs means every failed item of the given kind.
type QueueRetryRequest struct {
	Kind string  `json:"kind"`
	IDs  []int64 `json:"ids"`
}

// QueueRetryResponse reports number of restored items.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueClearFailedRequest removes terminally failed items.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports number of removed entries.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
