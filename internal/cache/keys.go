package cache

import "fmt"

func StatusKey(jobID string) string {
	return fmt.Sprintf("consultation:status:%s", jobID)
}

func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}
