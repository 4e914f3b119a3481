package cache

import "fmt"

const taskMetadataPrefix = "task_metadata:"

// TaskMetadataPattern matches every task metadata key.
const TaskMetadataPattern = taskMetadataPrefix + "*"

func TaskMetadataKey(jobID string) string {
	return taskMetadataPrefix + jobID
}

// TaskIDFromMetadataKey strips the metadata prefix. ok is false for keys
// outside the metadata namespace.
func TaskIDFromMetadataKey(key string) (string, bool) {
	if len(key) <= len(taskMetadataPrefix) || key[:len(taskMetadataPrefix)] != taskMetadataPrefix {
		return "", false
	}
	return key[len(taskMetadataPrefix):], true
}

func JobResultKey(jobID string) string {
	return fmt.Sprintf("ai_exam:result:%s", jobID)
}

func RateLimitKey(userID int64) string {
	return fmt.Sprintf("ratelimit:user:%d", userID)
}
