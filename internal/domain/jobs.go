package domain

// RecurringJobs describes the repeatable jobs registered on a queue.
// NextRun is a Unix timestamp in milliseconds.
type RecurringJobs struct {
	Count   int    `json:"count"`
	NextRun int64  `json:"nextRun"`
	Cron    string `json:"cron"`
}

type QueueStats struct {
	Waiting       int           `json:"waiting"`
	Active        int           `json:"active"`
	Completed     int           `json:"completed"`
	Failed        int           `json:"failed"`
	Delayed       int           `json:"delayed"`
	Status        string        `json:"status"`
	RecurringJobs RecurringJobs `json:"recurringJobs"`
}

type JobStats struct {
	Inventory   QueueStats `json:"inventory"`
	Product     QueueStats `json:"product"`
	RedisStatus string     `json:"redisStatus"`
}

type JobStatsResponse struct {
	Success        bool     `json:"success"`
	Stats          JobStats `json:"stats"`
	RedisAvailable bool     `json:"redisAvailable"`
	Message        string   `json:"message"`
}
