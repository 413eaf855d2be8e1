package safety

// Stage names the check that produced a verdict.
type Stage string

const (
	StageAdult         Stage = "adult"
	StageCertification Stage = "certification"
	StageKeyword       Stage = "keyword"
)

// Reason explains a verdict.
type Reason string

const (
	ReasonAllowed                   Reason = "allowed"
	ReasonAdultFlag                 Reason = "adult_flag"
	ReasonCertificationMissing      Reason = "certification_missing"
	ReasonCertificationDisallowed   Reason = "certification_disallowed"
	ReasonCertificationLookupFailed Reason = "certification_lookup_failed"
	ReasonKeywordMatch              Reason = "keyword_match"
	ReasonKeywordLookupFailed       Reason = "keyword_lookup_failed"
)

// Verdict is the outcome of classifying one catalog item.
// Stage is the last stage that ran.
type Verdict struct {
	Allowed bool
	Stage   Stage
	Reason  Reason
}

func allow(stage Stage) Verdict { return Verdict{Allowed: true, Stage: stage, Reason: ReasonAllowed} }

func deny(stage Stage, reason Reason) Verdict {
	return Verdict{Allowed: false, Stage: stage, Reason: reason}
}

// VerdictRecorder receives every verdict the pipeline produces.
type VerdictRecorder interface {
	RecordVerdict(v Verdict)
}

type nopRecorder struct{}

func (nopRecorder) RecordVerdict(Verdict) {}

// VerdictRecorderFunc adapts a function to VerdictRecorder.
type VerdictRecorderFunc func(v Verdict)

func (f VerdictRecorderFunc) RecordVerdict(v Verdict) { f(v) }
