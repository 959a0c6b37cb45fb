package dispatch

// Process exit codes for a batch run.
const (
	ExitOK      = 0 // every row sent, dry run, or nothing to send
	ExitPartial = 1 // at least one row failed, or the run was cancelled
	ExitFatal   = 2 // configuration or source error; nothing was sent
)

// ExitCode maps the result of Run to a process exit status.
func ExitCode(s *Summary, err error) int {
	if err != nil || s == nil {
		return ExitFatal
	}
	if s.Failed > 0 || s.Cancelled {
		return ExitPartial
	}
	return ExitOK
}
