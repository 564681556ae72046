package reconcile

type RecordKind string

const (
	RecordSubscription RecordKind = "subscription"
	RecordPayment      RecordKind = "payment"
)

type FailureKind string

const (
	FailureProvider    FailureKind = "provider"
	FailurePersistence FailureKind = "persistence"
)

type RecordResult struct {
	Kind        RecordKind `json:"kind"`
	ExternalRef string     `json:"external_ref"`
	RecordID    uint       `json:"record_id"`
}

type RecordFailure struct {
	Kind        FailureKind `json:"kind"`
	ExternalRef string      `json:"external_ref"`
	Message     string      `json:"message"`
}

// Report is the per-record outcome of one reconcile run. Slices are
// initialized so the JSON encoding is always [] and never null, and they
// preserve provider ordering so runs are reproducible.
type Report struct {
	Created []RecordResult  `json:"created"`
	Updated []RecordResult  `json:"updated"`
	Errors  []RecordFailure `json:"errors"`

	// Charge sync is best-effort: its failures are reported here, never as
	// an overall failure.
	ChargeSyncErrors []RecordFailure `json:"charge_sync_errors"`

	HasActiveSubscription bool `json:"has_active_subscription"`
}

func newReport() *Report {
	return &Report{
		Created:          []RecordResult{},
		Updated:          []RecordResult{},
		Errors:           []RecordFailure{},
		ChargeSyncErrors: []RecordFailure{},
	}
}

func (r *Report) created(kind RecordKind, ref string, id uint) {
	r.Created = append(r.Created, RecordResult{Kind: kind, ExternalRef: ref, RecordID: id})
}

func (r *Report) updated(kind RecordKind, ref string, id uint) {
	r.Updated = append(r.Updated, RecordResult{Kind: kind, ExternalRef: ref, RecordID: id})
}

func (r *Report) failed(kind FailureKind, ref string, err error) {
	r.Errors = append(r.Errors, RecordFailure{Kind: kind, ExternalRef: ref, Message: err.Error()})
}

func (r *Report) chargeSyncFailed(kind FailureKind, ref string, err error) {
	r.ChargeSyncErrors = append(r.ChargeSyncErrors, RecordFailure{Kind: kind, ExternalRef: ref, Message: err.Error()})
}
