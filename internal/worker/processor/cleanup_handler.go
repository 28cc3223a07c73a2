package processor

import (
	"os"
)

type Cleanup struct {
	workDir      string
	cleanupLocal bool
}

func NewCleanup(workDir string, cleanupLocal bool) *Cleanup {
	return &Cleanup{workDir: workDir, cleanupLocal: cleanupLocal}
}

// CleanupJob removes the job's working directory. It runs after success and
// failure alike.
func (c *Cleanup) CleanupJob(jobID string) error {
	if !c.cleanupLocal || jobID == "" {
		return nil
	}
	err := os.RemoveAll(jobDir(c.workDir, jobID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
