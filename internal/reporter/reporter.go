package reporter

// Reporter defines the interface for progress reporting.
type Reporter interface {
	FileStarted(summary FileSummary)
	AnalysisComplete(summary AnalysisSummary)
	PlanReady(plan PlanSummary)
	StrategyStarted(attempt StrategyAttempt)
	StrategyFinished(outcome StrategyOutcome)
	VerificationComplete(summary VerificationSummary)
	RepairComplete(outcome RepairOutcome)
	Warning(message string)
	Error(err ReporterError)
	OperationComplete(message string)
	BatchStarted(info BatchStartInfo)
	FileProgress(context FileProgressContext)
	BatchComplete(summary BatchSummary)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) FileStarted(FileSummary)                  {}
func (NullReporter) AnalysisComplete(AnalysisSummary)         {}
func (NullReporter) PlanReady(PlanSummary)                    {}
func (NullReporter) StrategyStarted(StrategyAttempt)          {}
func (NullReporter) StrategyFinished(StrategyOutcome)         {}
func (NullReporter) VerificationComplete(VerificationSummary) {}
func (NullReporter) RepairComplete(RepairOutcome)             {}
func (NullReporter) Warning(string)                           {}
func (NullReporter) Error(ReporterError)                      {}
func (NullReporter) OperationComplete(string)                 {}
func (NullReporter) BatchStarted(BatchStartInfo)              {}
func (NullReporter) FileProgress(FileProgressContext)         {}
func (NullReporter) BatchComplete(BatchSummary)               {}
func (NullReporter) Verbose(string)                           {}
