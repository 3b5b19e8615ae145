package reporter

// CompositeReporter fans out events to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) FileStarted(summary FileSummary) {
	for _, r := range c.reporters {
		r.FileStarted(summary)
	}
}

func (c *CompositeReporter) AnalysisComplete(summary AnalysisSummary) {
	for _, r := range c.reporters {
		r.AnalysisComplete(summary)
	}
}

func (c *CompositeReporter) PlanReady(plan PlanSummary) {
	for _, r := range c.reporters {
		r.PlanReady(plan)
	}
}

func (c *CompositeReporter) StrategyStarted(attempt StrategyAttempt) {
	for _, r := range c.reporters {
		r.StrategyStarted(attempt)
	}
}

func (c *CompositeReporter) StrategyFinished(outcome StrategyOutcome) {
	for _, r := range c.reporters {
		r.StrategyFinished(outcome)
	}
}

func (c *CompositeReporter) VerificationComplete(summary VerificationSummary) {
	for _, r := range c.reporters {
		r.VerificationComplete(summary)
	}
}

func (c *CompositeReporter) RepairComplete(outcome RepairOutcome) {
	for _, r := range c.reporters {
		r.RepairComplete(outcome)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) Error(err ReporterError) {
	for _, r := range c.reporters {
		r.Error(err)
	}
}

func (c *CompositeReporter) OperationComplete(message string) {
	for _, r := range c.reporters {
		r.OperationComplete(message)
	}
}

func (c *CompositeReporter) BatchStarted(info BatchStartInfo) {
	for _, r := range c.reporters {
		r.BatchStarted(info)
	}
}

func (c *CompositeReporter) FileProgress(context FileProgressContext) {
	for _, r := range c.reporters {
		r.FileProgress(context)
	}
}

func (c *CompositeReporter) BatchComplete(summary BatchSummary) {
	for _, r := range c.reporters {
		r.BatchComplete(summary)
	}
}

func (c *CompositeReporter) Verbose(message string) {
	for _, r := range c.reporters {
		r.Verbose(message)
	}
}
