package constants

// Error codes recorded on job error entries. Stable values (stored in DB
// and surfaced to clients); do not rename.
const (
	CodeClassifyFailed = "CLASSIFY_FAILED"        // pre-dispatch: classification error
	CodeTrimFailed     = "TRIM_FAILED"            // pre-dispatch: page trim error
	CodeStorageError   = "STORAGE_ERROR"          // object store read/write error
	CodeSubmitFailed   = "DOCUPIPE_SUBMIT_FAILED" // provider dispatch rejected or no run id
	CodePollFailed     = "DOCUPIPE_POLL_FAILED"   // status check transport error
	CodeJobFailed      = "DOCUPIPE_JOB_FAILED"    // provider reported the run as failed
	CodeJobTimeout     = "DOCUPIPE_JOB_TIMEOUT"   // poll loop exceeded the overall deadline
	CodeFetchFailed    = "DOCUPIPE_FETCH_FAILED"  // result retrieval error
	CodeBadResult      = "DOCUPIPE_BAD_RESULT"    // result payload failed envelope validation
	CodeResumeLost     = "RESUME_LOST"            // processing job found without a run id after restart
)
